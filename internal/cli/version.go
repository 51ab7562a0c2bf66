package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/ormkit/internal/ui"
	"github.com/satishbabariya/ormkit/internal/version"
)

func newVersionCommand(root *RootOptions) *cobra.Command {
	var short, asYAML bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			switch {
			case short:
				fmt.Fprintln(out, info.Version)
			case asYAML:
				return yaml.NewEncoder(out).Encode(info)
			case root.Plain:
				for _, l := range info.Lines() {
					fmt.Fprintf(out, "%-11s %s\n", l[0]+":", l[1])
				}
			default:
				fmt.Fprintln(out, banner(info))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print the version number only")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	return cmd
}

func banner(info version.Info) string {
	label := ui.SecondaryStyle.Width(12)
	var lines []string
	for _, l := range info.Lines() {
		lines = append(lines, label.Render(l[0])+l[1])
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.PrimaryColor).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			ui.TitleStyle.Render("ormkit"),
			"",
			strings.Join(lines, "\n"),
		))
}
