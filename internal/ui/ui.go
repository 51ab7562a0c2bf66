// Package ui renders the command-line output of ormkit.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle     = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	SuccessStyle   = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle   = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	SecondaryStyle = lipgloss.NewStyle().Foreground(SecondaryColor)
)

const defaultWidth = 80

// Printer writes styled output. Errors go to Err, everything else to Out.
type Printer struct {
	Out   io.Writer
	Err   io.Writer
	Plain bool
}

// New returns a Printer on stdout and stderr. Styling is dropped when
// NO_COLOR is set.
func New() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr, Plain: color.NoColor}
}

// NewPlain returns a Printer without styling, for tests and pipes.
func NewPlain(out, err io.Writer) *Printer {
	return &Printer{Out: out, Err: err, Plain: true}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if p.Plain {
		return s
	}
	return style.Render(s)
}

func width() int {
	if w := pterm.GetTerminalWidth(); w > 0 {
		return w
	}
	return defaultWidth
}

// Header prints a boxed title.
func (p *Printer) Header(title, subtitle string) {
	if p.Plain {
		fmt.Fprintf(p.Out, "%s\n%s\n\n", title, subtitle)
		return
	}

	box := lipgloss.NewStyle().
		Width(min(width(), defaultWidth)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Center,
			TitleStyle.Render(title),
			SecondaryStyle.Render(subtitle),
		))
	fmt.Fprintln(p.Out, box)
	fmt.Fprintln(p.Out)
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, p.render(SuccessStyle, "✓ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Out, p.render(WarningStyle, "⚠ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.Err, p.render(ErrorStyle, "✗ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Out, p.render(SecondaryStyle, fmt.Sprintf(format, args...)))
}

// Table prints rows under headers. Plain printers separate cells with tabs.
func (p *Printer) Table(headers []string, rows [][]string) error {
	if p.Plain {
		fmt.Fprintln(p.Out, strings.Join(headers, "\t"))
		for _, r := range rows {
			fmt.Fprintln(p.Out, strings.Join(r, "\t"))
		}
		return nil
	}

	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithWriter(p.Out).
		WithData(data).
		Render()
}

// Markdown renders markdown for the terminal. Plain printers write it as is.
func (p *Printer) Markdown(content string) error {
	if p.Plain {
		_, err := io.WriteString(p.Out, content)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width(), defaultWidth)),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.Out, out)
	return err
}

// Code prints a statement in a bordered block.
func (p *Printer) Code(code, label string) {
	if p.Plain {
		fmt.Fprintln(p.Out, code)
		return
	}

	if label != "" {
		fmt.Fprintln(p.Out, SecondaryStyle.Render(" "+label+" "))
	}
	fmt.Fprintln(p.Out, lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SecondaryColor).
		Padding(0, 1).
		Render(code))
}

// Prompt is the colored REPL prompt.
func Prompt(dialect string) string {
	return color.New(color.FgCyan, color.Bold).Sprint(dialect) + "> "
}
