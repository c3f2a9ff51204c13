// Package render formats scan output for the terminal: colored match
// listings, diff previews for rewrites, and the run summary table.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/treegrep/internal/config"
	"github.com/Sumatoshi-tech/treegrep/pkg/scan"
)

// Renderer writes formatted scan output.
type Renderer struct {
	w       io.Writer
	context int

	pathColor     *color.Color
	positionColor *color.Color
	ruleColor     *color.Color
	severityColor map[string]*color.Color
}

// New builds a renderer. The color mode is one of the config package's
// Color constants; context is the number of surrounding source lines
// shown per match.
func New(w io.Writer, colorMode string, context int) *Renderer {
	applyColorMode(colorMode)

	return &Renderer{
		w:             w,
		context:       context,
		pathColor:     color.New(color.FgMagenta),
		positionColor: color.New(color.FgGreen),
		ruleColor:     color.New(color.FgCyan),
		severityColor: map[string]*color.Color{
			"error":   color.New(color.FgRed, color.Bold),
			"warning": color.New(color.FgYellow),
			"info":    color.New(color.FgBlue),
			"hint":    color.New(color.FgHiBlack),
		},
	}
}

// applyColorMode maps the config color mode onto the library global.
// Auto keeps the library's own TTY detection.
func applyColorMode(mode string) {
	switch mode {
	case config.ColorAlways:
		color.NoColor = false //nolint:reassign // intentional override of library global
	case config.ColorNever:
		color.NoColor = true //nolint:reassign // intentional override of library global
	}
}

// Matches prints every match of every result, grouped by file.
func (r *Renderer) Matches(results []scan.Result) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(r.w, "%s: %v\n", res.Path, res.Err)

			continue
		}

		if len(res.Matches) == 0 {
			continue
		}

		r.pathColor.Fprintln(r.w, res.Path)

		for _, m := range res.Matches {
			r.match(res, m)
		}

		fmt.Fprintln(r.w)
	}
}

func (r *Renderer) match(res scan.Result, m scan.Match) {
	sev := r.severityColor[m.Severity]
	if sev == nil {
		sev = color.New(color.Reset)
	}

	fmt.Fprintf(r.w, "  %s %s %s",
		r.positionColor.Sprintf("%d:%d", m.StartLine+1, m.StartColumn+1),
		sev.Sprint(m.Severity),
		r.ruleColor.Sprint(m.RuleID))

	if m.Message != "" {
		fmt.Fprintf(r.w, " %s", m.Message)
	}

	fmt.Fprintln(r.w)

	for _, line := range r.sourceLines(res.Source, m) {
		fmt.Fprintf(r.w, "    %s\n", line)
	}
}

// sourceLines extracts the matched lines plus the configured context.
func (r *Renderer) sourceLines(source []byte, m scan.Match) []string {
	if len(source) == 0 {
		return nil
	}

	lines := strings.Split(string(source), "\n")

	first := m.StartLine - r.context
	if first < 0 {
		first = 0
	}

	last := m.EndLine + r.context
	if last >= len(lines) {
		last = len(lines) - 1
	}

	out := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, fmt.Sprintf("%d│ %s", i+1, lines[i]))
	}

	return out
}

// Summary prints the run statistics as a compact table.
func (r *Renderer) Summary(stats scan.Stats) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(r.w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendRow(table.Row{"files scanned", humanize.Comma(int64(stats.FilesScanned))})
	tbl.AppendRow(table.Row{"files skipped", humanize.Comma(int64(stats.FilesSkipped))})
	tbl.AppendRow(table.Row{"matches", humanize.Comma(int64(stats.Matches))})
	tbl.AppendRow(table.Row{"errors", humanize.Comma(int64(stats.Errors))})
	tbl.AppendRow(table.Row{"bytes", humanize.Bytes(uint64(stats.Bytes))})
	tbl.AppendRow(table.Row{"duration", stats.Duration.Round(durationUnit(stats.Duration)).String()})

	tbl.Render()
}

// durationUnit picks a rounding unit that keeps short runs readable
// without drowning long runs in digits.
func durationUnit(d time.Duration) time.Duration {
	switch {
	case d >= time.Minute:
		return time.Second
	case d >= time.Second:
		return 10 * time.Millisecond
	default:
		return 10 * time.Microsecond
	}
}
