// Package edit turns matches into source rewrites: replacement templates
// with meta-variable substitution and transformations, and a commit step
// that validates and splices a batch of edits in one pass.
package edit

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Edit replaces the byte range [Start, End) of a source buffer with Text.
// A zero-width range is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

// ConflictError reports two edits with overlapping ranges. Overlapping
// edits are never merged silently; the caller must resolve them.
type ConflictError struct {
	First  Edit
	Second Edit
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("edit: conflicting edits [%d,%d) and [%d,%d)",
		e.First.Start, e.First.End, e.Second.Start, e.Second.End)
}

// BoundsError reports an edit outside the source buffer.
type BoundsError struct {
	Edit   Edit
	Length int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("edit: edit [%d,%d) outside source of %d bytes",
		e.Edit.Start, e.Edit.End, e.Length)
}

// Replace builds the edit that substitutes a matched node with text.
func Replace(n tree.Node, text string) Edit {
	return Edit{Start: n.StartByte(), End: n.EndByte(), Text: text}
}

// Commit applies a batch of edits to source and returns the new content.
// Edits are sorted by start offset; any pairwise overlap aborts with a
// *ConflictError before a single byte is written. Edits touching at a
// boundary (one ends where the next starts) are fine. Committing no
// edits returns the source unchanged.
func Commit(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}

		return sorted[i].End < sorted[j].End
	})

	for _, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(source) {
			return nil, &BoundsError{Edit: e, Length: len(source)}
		}
	}

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].End > sorted[i].Start {
			return nil, &ConflictError{First: sorted[i-1], Second: sorted[i]}
		}
	}

	var out bytes.Buffer

	out.Grow(len(source))

	cursor := 0

	for _, e := range sorted {
		out.Write(source[cursor:e.Start])
		out.WriteString(e.Text)
		cursor = e.End
	}

	out.Write(source[cursor:])

	return out.Bytes(), nil
}

// varText resolves a meta-variable reference to its replacement text.
// Transformed values shadow captures; a multi capture renders as the
// source span from its first to its last node, separators included.
func varText(env matcher.Env, name string) (string, bool) {
	if s, ok := env.GetTransformed(name); ok {
		return s, true
	}

	if n, ok := env.Get(name); ok {
		return n.Text(), true
	}

	if ns, ok := env.GetMulti(name); ok {
		if len(ns) == 0 {
			return "", true
		}

		first, last := ns[0], ns[len(ns)-1]
		src := first.Tree().Source()

		return string(src[first.StartByte():last.EndByte()]), true
	}

	return "", false
}
