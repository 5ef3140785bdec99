// Package render prints command results as styled tables or as
// machine-readable JSON, YAML or CSV.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a --format value. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want table, json, yaml or csv)", s)
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	workingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	totalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Printer writes to one destination. Styling is applied only when that
// destination is a terminal.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter returns a printer for w, styled if w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{w: w, styled: styled}
}

// Plain returns a printer that never styles.
func Plain(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// Line prints one unstyled line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Title(text string) {
	fmt.Fprintln(p.w, p.style(titleStyle, text))
}

// Muted prints secondary information such as hints.
func (p *Printer) Muted(text string) {
	fmt.Fprintln(p.w, p.style(mutedStyle, text))
}

// Total prints a labelled hour total, e.g. "This Week: 12.50h (12h 30m)".
func (p *Printer) Total(label string, hours float64) {
	secs := int64(math.Round(hours * 3600))
	fmt.Fprintf(p.w, "%s: %s %s\n", label,
		p.style(totalStyle, model.FormatHours(hours)),
		p.style(mutedStyle, "("+timecalc.FormatDuration(secs)+")"))
}

// Table prints rows in columns padded to their display width.
func (p *Printer) Table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && runewidth.StringWidth(c) > widths[i] {
				widths[i] = runewidth.StringWidth(c)
			}
		}
	}

	line := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			if i < len(widths)-1 {
				c = runewidth.FillRight(c, widths[i])
			}
			parts[i] = c
		}
		out := strings.TrimRight(strings.Join(parts, "  "), " ")
		if style != nil {
			out = p.style(*style, out)
		}
		return out
	}

	fmt.Fprintln(p.w, line(headers, &headerStyle))
	for _, r := range rows {
		fmt.Fprintln(p.w, line(r, nil))
	}
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// YAML writes v as a YAML document.
func (p *Printer) YAML(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
