package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff prints a line-based preview of a rewrite: removed lines with a
// leading '-', added lines with '+', unchanged lines with two spaces.
func (r *Renderer) Diff(path string, before, after []byte) {
	if string(before) == string(after) {
		return
	}

	r.pathColor.Fprintln(r.w, path)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)

	for _, d := range lineDiff(string(before), string(after)) {
		var (
			prefix = "  "
			paint  *color.Color
		)

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, paint = "- ", removed
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+ ", added
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range splitDiffLines(d.Text) {
			if paint != nil {
				paint.Fprintf(r.w, "%s%s\n", prefix, line)
			} else {
				fmt.Fprintf(r.w, "%s%s\n", prefix, line)
			}
		}
	}

	fmt.Fprintln(r.w)
}

// lineDiff computes a line-granular diff via the rune-mapping trick:
// each distinct line becomes one rune so the diff never splits a line.
func lineDiff(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()

	c1, c2, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(c1, c2, false)

	return dmp.DiffCharsToLines(diffs, lines)
}

// splitDiffLines splits a diff chunk into lines, dropping the trailing
// empty piece a final newline produces.
func splitDiffLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
