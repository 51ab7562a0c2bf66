package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// FileName is the config file searched for, without extension.
	FileName  = ".ormkit"
	EnvPrefix = "ORMKIT"
)

var defaults = map[string]any{
	"debug":                         false,
	"database.dialect":              "sqlite3",
	"database.filepath":             "ormkit.db",
	"database.return_on_insert":     false,
	"database.busy_timeout":         "5s",
	"database.uri":                  "",
	"database.host":                 "",
	"database.port":                 0,
	"database.hosts":                []string{},
	"database.username":             "",
	"database.password":             "",
	"database.database":             "",
	"database.ssl_mode":             "",
	"database.charset":              "",
	"database.driver":               "",
	"database.pooled":               false,
	"database.pool_size":            10,
	"database.reconnect_on_timeout": true,
	"database.connect_timeout":      "10s",
}

// Loader reads configuration through viper on an afero filesystem.
type Loader struct {
	fs         afero.Fs
	v          *viper.Viper
	dir        string
	home       string
	configFile string
}

// Option configures a Loader.
type Option func(*Loader)

// WithFs sets the filesystem config and .env files are read from.
func WithFs(fs afero.Fs) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithDir sets the working directory searched first.
func WithDir(dir string) Option {
	return func(l *Loader) {
		l.dir = dir
	}
}

// WithHome overrides the home directory lookup.
func WithHome(home string) Option {
	return func(l *Loader) {
		l.home = home
	}
}

// WithConfigFile reads exactly path instead of searching.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.configFile = path
	}
}

// NewLoader creates a Loader. Defaults: the OS filesystem, the current
// directory and the user's home directory.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{fs: afero.NewOsFs(), dir: "."}
	for _, opt := range opts {
		opt(l)
	}
	if l.home == "" {
		if home, err := homedir.Dir(); err == nil {
			l.home = home
		}
	}

	l.v = viper.New()
	l.v.SetFs(l.fs)
	for k, v := range defaults {
		l.v.SetDefault(k, v)
	}
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		return l
	}
	l.v.SetConfigName(FileName)
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(l.dir)
	if l.home != "" {
		l.v.AddConfigPath(l.home)
		l.v.AddConfigPath(filepath.Join(l.home, ".config", "ormkit"))
	}
	return l
}

// Load reads .env, .env.local and the config file, then decodes and
// validates the result. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFiles(); err != nil {
		return nil, err
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return l.decode()
}

// ConfigFileUsed returns the file Load read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := l.v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles exports .env without overriding the environment, then
// .env.local with overriding.
func (l *Loader) loadEnvFiles() error {
	for _, f := range []struct {
		name     string
		override bool
	}{
		{".env", false},
		{".env.local", true},
	} {
		path := filepath.Join(l.dir, f.name)
		data, err := afero.ReadFile(l.fs, path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read %s: %w", path, err)
		}

		vars, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for k, v := range vars {
			if _, set := os.LookupEnv(k); set && !f.override {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// DefaultPath is where Save writes when no path is given.
func (l *Loader) DefaultPath() string {
	return filepath.Join(l.home, ".config", "ormkit", FileName+".yaml")
}

// Save writes cfg as YAML to path, or to DefaultPath when path is empty,
// and returns the written path.
func (l *Loader) Save(cfg *Config, path string) (string, error) {
	if path == "" {
		path = l.DefaultPath()
	}
	if err := l.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	d := cfg.Database
	l.v.Set("debug", cfg.Debug)
	for k, v := range map[string]any{
		"dialect":              d.Dialect,
		"filepath":             d.Filepath,
		"return_on_insert":     d.ReturnOnInsert,
		"busy_timeout":         d.BusyTimeout.String(),
		"uri":                  d.URI,
		"host":                 d.Host,
		"port":                 d.Port,
		"hosts":                d.Hosts,
		"username":             d.Username,
		"password":             d.Password,
		"database":             d.Database,
		"ssl_mode":             d.SSLMode,
		"charset":              d.Charset,
		"driver":               d.Driver,
		"pooled":               d.Pooled,
		"pool_size":            d.PoolSize,
		"reconnect_on_timeout": d.ReconnectOnTimeout,
		"connect_timeout":      d.ConnectTimeout.String(),
	} {
		l.v.Set("database."+k, v)
	}

	if err := l.v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Watch calls onChange with the re-decoded config every time the loaded
// config file changes on disk.
func (l *Loader) Watch(onChange func(cfg *Config, err error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.decode())
	})
	l.v.WatchConfig()
}
