// Package version reports build information. The variables are set with
// -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type Info struct {
	Version   string `yaml:"version"`
	BuildDate string `yaml:"build_date"`
	GitCommit string `yaml:"git_commit"`
	GoVersion string `yaml:"go_version"`
	Platform  string `yaml:"platform"`
}

// Get returns the build information. A dev build falls back to the module
// version recorded by the go tool.
func Get() Info {
	v := Version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return Info{
		Version:   v,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("ormkit %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// Lines returns the labelled fields shown by the version command.
func (i Info) Lines() [][2]string {
	return [][2]string{
		{"Version", i.Version},
		{"Build date", i.BuildDate},
		{"Git commit", i.GitCommit},
		{"Go", i.GoVersion},
		{"Platform", i.Platform},
	}
}
