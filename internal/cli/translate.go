package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator/document"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/satishbabariya/ormkit/internal/dsl"
	"github.com/satishbabariya/ormkit/internal/runtime"
	"github.com/satishbabariya/ormkit/internal/ui"
)

var formats = []string{"sql", "yaml", "markdown"}

func newTranslateCommand(root *RootOptions) *cobra.Command {
	var dialect, format string

	cmd := &cobra.Command{
		Use:   "translate <statement>",
		Short: "Print what a statement turns into for a backend",
		Example: `  ormkit translate "select * from articles where title = 'hola'"
  ormkit translate --dialect mongo --format yaml "count from articles where views > 10"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := dsl.Compile(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return translate(root.printer(cmd), domain.Dialect(dialect), format, desc)
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", string(domain.SQLite), "sqlite3, mysql, postgres or mongo")
	cmd.Flags().StringVarP(&format, "format", "f", "sql", "output: "+strings.Join(formats, ", "))
	return cmd
}

func translate(p *ui.Printer, dialect domain.Dialect, format string, desc *domain.Description) error {
	switch format {
	case "sql", "yaml", "markdown":
	default:
		return runtime.Configf("unknown format %q, want one of %v", format, formats)
	}

	if dialect == domain.Mongo {
		cmd, err := document.New().Translate(desc)
		if err != nil {
			return err
		}
		out, err := commandYAML(cmd)
		if err != nil {
			return err
		}
		if format == "markdown" {
			return p.Markdown(fmt.Sprintf("### %s `%s`\n\n```yaml\n%s```\n", cmd.Kind, cmd.Collection, out))
		}
		_, err = io.WriteString(p.Out, out)
		return err
	}

	tr, err := sqlgen.New(dialect)
	if err != nil {
		return err
	}
	stmt, err := tr.Translate(desc)
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		out, err := yaml.Marshal(struct {
			Dialect domain.Dialect `yaml:"dialect"`
			SQL     string         `yaml:"sql"`
			Args    []any          `yaml:"args,omitempty"`
			Returns bool           `yaml:"returns,omitempty"`
		}{dialect, stmt.SQL, stmt.Args, stmt.Returns})
		if err != nil {
			return err
		}
		_, err = p.Out.Write(out)
		return err
	case "markdown":
		return p.Markdown(statementMarkdown(dialect, stmt))
	}

	p.Code(stmt.SQL, string(dialect))
	if len(stmt.Args) == 0 {
		return nil
	}
	return p.Table([]string{"#", "value", "type"}, argRows(stmt.Args))
}

func argRows(args []any) [][]string {
	rows := make([][]string, len(args))
	for i, a := range args {
		rows[i] = []string{fmt.Sprint(i + 1), fmt.Sprint(a), fmt.Sprintf("%T", a)}
	}
	return rows
}

func statementMarkdown(dialect domain.Dialect, stmt *sqlgen.Statement) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n```sql\n%s\n```\n", dialect, stmt.SQL)
	if len(stmt.Args) > 0 {
		sb.WriteString("\n| # | value | type |\n|---|---|---|\n")
		for _, r := range argRows(stmt.Args) {
			fmt.Fprintf(&sb, "| %s | `%s` | %s |\n", r[0], r[1], r[2])
		}
	}
	return sb.String()
}

// commandYAML renders a document command keeping the key order of its
// documents, which matters for pipelines.
func commandYAML(cmd *document.Command) (string, error) {
	doc := bson.D{
		{Key: "kind", Value: string(cmd.Kind)},
		{Key: "collection", Value: cmd.Collection},
	}
	if len(cmd.Filter) > 0 {
		doc = append(doc, bson.E{Key: "filter", Value: cmd.Filter})
	}
	if cmd.Pipeline != nil {
		doc = append(doc, bson.E{Key: "pipeline", Value: cmd.Pipeline})
	}
	if len(cmd.Documents) > 0 {
		doc = append(doc, bson.E{Key: "documents", Value: cmd.Documents})
	}
	if len(cmd.Update) > 0 {
		doc = append(doc, bson.E{Key: "update", Value: cmd.Update})
	}

	node, err := yamlNode(doc)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func yamlNode(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case bson.D:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range v {
			val, err := yamlNode(e.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e.Key}, val)
		}
		return n, nil
	case mongo.Pipeline:
		return sequenceNode(len(v), func(i int) any { return v[i] })
	case bson.A:
		return sequenceNode(len(v), func(i int) any { return v[i] })
	case []any:
		return sequenceNode(len(v), func(i int) any { return v[i] })
	case primitive.ObjectID:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("ObjectId(%q)", v.Hex())}, nil
	case primitive.DateTime:
		return yamlNode(v.Time().UTC())
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func sequenceNode(n int, at func(int) any) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for i := 0; i < n; i++ {
		item, err := yamlNode(at(i))
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, item)
	}
	return seq, nil
}
