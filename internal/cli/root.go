// Package cli implements the ormkit command.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/ormkit/internal/config"
	"github.com/satishbabariya/ormkit/internal/debug"
	"github.com/satishbabariya/ormkit/internal/ui"
	"github.com/satishbabariya/ormkit/pkg/orm"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigFile string
	Dir        string
	Debug      bool
	Plain      bool

	fs afero.Fs
}

// NewRootCommand creates the ormkit command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{fs: afero.NewOsFs()})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ormkit",
		Short: "Query SQL and document databases through one descriptor model",
		Long: `ormkit builds backend-neutral query descriptions and runs them against
SQLite, MySQL, PostgreSQL or MongoDB.

Connection settings come from .ormkit.yaml, ORMKIT_* variables and .env files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Debug {
				debug.InitWriter(true, cmd.ErrOrStderr())
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default .ormkit.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", ".", "project directory searched for config and .env files")
	cmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "log every statement to stderr")
	cmd.PersistentFlags().BoolVar(&opts.Plain, "plain", false, "disable colors and boxes")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newPingCommand(opts))
	cmd.AddCommand(newTranslateCommand(opts))
	cmd.AddCommand(newShellCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))

	return cmd
}

// Execute runs the command until it returns or the process is interrupted,
// and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		ui.New().Error("%v", err)
		return 1
	}
	return 0
}

func (o *RootOptions) loader() *config.Loader {
	lopts := []config.Option{config.WithFs(o.fs), config.WithDir(o.Dir)}
	if o.ConfigFile != "" {
		lopts = append(lopts, config.WithConfigFile(o.ConfigFile))
	}
	return config.NewLoader(lopts...)
}

func (o *RootOptions) printer(cmd *cobra.Command) *ui.Printer {
	if o.Plain {
		return ui.NewPlain(cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	p := ui.New()
	p.Out, p.Err = cmd.OutOrStdout(), cmd.ErrOrStderr()
	return p
}

func (o *RootOptions) open(cfg *config.Config) (*orm.Database, error) {
	db, err := orm.Open(cfg.Database, orm.WithDebug(cfg.Debug || o.Debug))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Database.Dialect, err)
	}
	return db, nil
}
