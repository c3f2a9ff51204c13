package edit

import (
	"strings"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Template is a parsed replacement template. Literal text is interleaved
// with meta-variable references written exactly as in patterns: $NAME or
// $$$NAME. Unknown references render as empty text.
type Template struct {
	source string
	parts  []part
}

// part is either literal text or one variable reference.
type part struct {
	lit  string
	name string
	ref  bool
}

// NewTemplate parses a replacement template. Template syntax always uses
// '$', independent of the target language's expando rune: templates are
// never parsed by a grammar.
func NewTemplate(source string) *Template {
	t := &Template{source: source}

	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{lit: lit.String()})
			lit.Reset()
		}
	}

	i := 0

	for i < len(source) {
		if source[i] != '$' {
			lit.WriteByte(source[i])
			i++

			continue
		}

		dollars := 0
		for i+dollars < len(source) && source[i+dollars] == '$' && dollars < 3 {
			dollars++
		}

		nameStart := i + dollars

		nameEnd := nameStart
		for nameEnd < len(source) && isNameChar(source[nameEnd]) {
			nameEnd++
		}

		token := source[i:nameEnd]

		mv, ok := matcher.ExtractMetaVar(token, '$')
		if !ok || !mv.Capture {
			lit.WriteString(source[i : i+dollars])
			i += dollars

			continue
		}

		flush()
		t.parts = append(t.parts, part{name: mv.Name, ref: true})
		i = nameEnd
	}

	flush()

	return t
}

// Source returns the original template text.
func (t *Template) Source() string { return t.source }

// Render instantiates the template with an environment's bindings.
func (t *Template) Render(env matcher.Env) string {
	var out strings.Builder

	out.Grow(len(t.source))

	for _, p := range t.parts {
		if !p.ref {
			out.WriteString(p.lit)

			continue
		}

		if text, ok := varText(env, p.name); ok {
			out.WriteString(text)
		}
	}

	return out.String()
}

// RenderEdit renders the template for a matched node and wraps the result
// into the edit replacing that node.
func (t *Template) RenderEdit(n tree.Node, env matcher.Env) Edit {
	return Replace(n, t.Render(env))
}

func isNameChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
