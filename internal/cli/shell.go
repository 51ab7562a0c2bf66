package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/debug"
	"github.com/satishbabariya/ormkit/internal/dsl"
	"github.com/satishbabariya/ormkit/internal/ui"
	"github.com/satishbabariya/ormkit/pkg/orm"
)

const continuationPrompt = "  -> "

const shellHelp = `Statements end with a semicolon and may span lines.

  .grammar   print the statement grammar
  .help      print this help
  exit       leave the shell
`

func newShellCommand(root *RootOptions) *cobra.Command {
	var history string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run statements interactively against the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loader().Load()
			if err != nil {
				return err
			}
			db, err := root.open(cfg)
			if err != nil {
				return err
			}
			defer db.Close(cmd.Context())

			if history != "" {
				if history, err = homedir.Expand(history); err != nil {
					return err
				}
			}

			p := root.printer(cmd)
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          ui.Prompt(string(db.Dialect())),
				HistoryFile:     history,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdin:           io.NopCloser(cmd.InOrStdin()),
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			p.Info("connected to %s. Type .help for help.", db.Dialect())
			sh := &shell{db: db, p: p, in: rl, prompt: ui.Prompt(string(db.Dialect()))}
			return sh.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&history, "history", "~/.ormkit_history", "history file, empty to disable")
	return cmd
}

type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

type shell struct {
	db     *orm.Database
	p      *ui.Printer
	in     lineReader
	prompt string
}

// run reads statements until exit, EOF or an interrupt on an empty line.
// Statement errors are printed, not returned.
func (s *shell) run(ctx context.Context) error {
	var buf strings.Builder

	for ctx.Err() == nil {
		if buf.Len() == 0 {
			s.in.SetPrompt(s.prompt)
		} else {
			s.in.SetPrompt(continuationPrompt)
		}

		line, err := s.in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if buf.Len() == 0 {
				return nil
			}
			buf.Reset()
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			switch strings.ToLower(trimmed) {
			case "":
				continue
			case "exit", "quit", ".exit":
				return nil
			case ".help":
				s.p.Info("%s", shellHelp)
				continue
			case ".grammar":
				s.p.Code(dsl.Grammar(), "ebnf")
				continue
			}
		}

		buf.WriteString(line)
		if !strings.HasSuffix(trimmed, ";") {
			buf.WriteString("\n")
			continue
		}

		input := buf.String()
		buf.Reset()
		if err := s.exec(ctx, input); err != nil {
			debug.Warn("shell statement failed", "error", err)
			s.p.Error("%v", err)
		}
	}
	return nil
}

func (s *shell) exec(ctx context.Context, input string) error {
	desc, err := dsl.Compile(input)
	if err != nil {
		return err
	}
	res, err := s.db.Query(ctx, desc)
	if err != nil {
		return err
	}
	return printResult(s.p, desc.Type(), res)
}

func printResult(p *ui.Printer, typ domain.Type, res *domain.Result) error {
	if len(res.Rows) > 0 {
		cols := columns(res.Rows)
		rows := make([][]string, len(res.Rows))
		for i, r := range res.Rows {
			row := make([]string, len(cols))
			for j, c := range cols {
				if v, ok := r[c]; ok && v != nil {
					row[j] = fmt.Sprint(v)
				} else {
					row[j] = "NULL"
				}
			}
			rows[i] = row
		}
		if err := p.Table(cols, rows); err != nil {
			return err
		}
		p.Info("(%d rows)", len(res.Rows))
		return nil
	}

	switch typ {
	case domain.Insert, domain.Update, domain.Delete:
		p.Success("%d rows affected", res.AffectedRows)
		if typ == domain.Insert && res.HasLastInsertID {
			p.Info("last insert id: %v", res.LastInsertID)
		}
	case domain.Create, domain.Drop:
		p.Success("ok")
	default:
		p.Info("(0 rows)")
	}
	return nil
}

// columns returns the union of the rows' keys, "id" first and the rest
// sorted.
func columns(rows []domain.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i] == "id" || cols[j] == "id" {
			return cols[i] == "id"
		}
		return cols[i] < cols[j]
	})
	return cols
}
