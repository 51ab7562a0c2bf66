package cli

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/ormkit/internal/config"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
)

type initOptions struct {
	db   config.Database
	path string
	yes  bool
}

func newInitCommand(root *RootOptions) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file",
		Long: `Prompt for the backend and its connection settings, then write them to
.ormkit.yaml. Values given as flags are not asked for; --yes asks nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.yes {
				if err := ask(&opts.db); err != nil {
					return err
				}
			}
			return runInit(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.db.Dialect, "dialect", "", "sqlite3, mysql, postgres or mongo")
	f.StringVar(&opts.db.Filepath, "filepath", "", "sqlite3 database file")
	f.StringVar(&opts.db.URI, "uri", "", "connection URI")
	f.StringVar(&opts.db.Host, "host", "", "server host")
	f.IntVar(&opts.db.Port, "port", 0, "server port")
	f.StringVar(&opts.db.Username, "username", "", "user name")
	f.StringVar(&opts.db.Password, "password", "", "password")
	f.StringVar(&opts.db.Database, "database", "", "database name")
	f.StringVarP(&opts.path, "output", "o", "", "file to write (default $HOME/.config/ormkit/.ormkit.yaml)")
	f.BoolVarP(&opts.yes, "yes", "y", false, "do not prompt")

	return cmd
}

func runInit(cmd *cobra.Command, root *RootOptions, opts *initOptions) error {
	db := opts.db
	if db.Dialect == "" {
		db.Dialect = string(domain.SQLite)
	}
	if db.Dialect == string(domain.SQLite) && db.Filepath == "" {
		db.Filepath = "ormkit.db"
	}
	db.ReconnectOnTimeout = true
	db.PoolSize = 10

	if err := db.Validate(); err != nil {
		return err
	}

	path, err := root.loader().Save(&config.Config{Database: db}, opts.path)
	if err != nil {
		return err
	}
	root.printer(cmd).Success("wrote %s", path)
	return nil
}

// ask prompts for every setting the dialect needs that no flag provided.
func ask(db *config.Database) error {
	if db.Dialect == "" {
		dialects := make([]string, len(config.Dialects))
		for i, d := range config.Dialects {
			dialects[i] = string(d)
		}
		if err := survey.AskOne(&survey.Select{
			Message: "Database:",
			Options: dialects,
			Default: string(domain.SQLite),
		}, &db.Dialect); err != nil {
			return err
		}
	}

	var qs []*survey.Question
	input := func(name, message, def string) {
		qs = append(qs, &survey.Question{
			Name:     name,
			Prompt:   &survey.Input{Message: message, Default: def},
			Validate: survey.Required,
		})
	}

	switch domain.Dialect(db.Dialect) {
	case domain.SQLite:
		if db.Filepath == "" {
			input("filepath", "Database file:", "ormkit.db")
		}
	case domain.Mongo:
		if db.URI == "" {
			input("uri", "Connection URI:", "mongodb://localhost:27017")
		}
		if db.Database == "" {
			input("database", "Database:", "")
		}
	case domain.MySQL, domain.Postgres:
		if db.URI != "" {
			break
		}
		if db.Host == "" {
			input("host", "Host:", "localhost")
		}
		if db.Port == 0 {
			port := "3306"
			if db.Dialect == string(domain.Postgres) {
				port = "5432"
			}
			input("port", "Port:", port)
		}
		if db.Username == "" {
			input("username", "User:", "root")
		}
		if db.Password == "" {
			qs = append(qs, &survey.Question{Name: "password", Prompt: &survey.Password{Message: "Password:"}})
		}
		if db.Database == "" {
			input("database", "Database:", "")
		}
	default:
		return fmt.Errorf("unknown dialect %q", db.Dialect)
	}
	if len(qs) == 0 {
		return nil
	}

	answers := map[string]any{}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	return applyAnswers(db, answers)
}

func applyAnswers(db *config.Database, answers map[string]any) error {
	for name, v := range answers {
		s := fmt.Sprint(v)
		switch name {
		case "filepath":
			db.Filepath = s
		case "uri":
			db.URI = s
		case "host":
			db.Host = s
		case "port":
			port, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("port: %w", err)
			}
			db.Port = port
		case "username":
			db.Username = s
		case "password":
			db.Password = s
		case "database":
			db.Database = s
		}
	}
	return nil
}
