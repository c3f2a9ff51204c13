package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// CompileError kinds.
const (
	ErrInvalidPattern  = "invalid-pattern"
	ErrNoContent       = "no-content"
	ErrSelectorMissing = "selector-missing"
)

// CompileError reports why a pattern source could not be compiled.
type CompileError struct {
	Kind    string
	Pattern string
	Detail  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("matcher: %s in pattern %q: %s", e.Kind, e.Pattern, e.Detail)
}

// patternNode is one node of a compiled pattern.
type patternNode struct {
	kind     string
	text     string
	field    string
	named    bool
	leaf     bool
	mv       *MetaVar
	children []*patternNode
}

// Pattern is a compiled structural pattern bound to one language.
// A Pattern is immutable and safe for concurrent matching.
type Pattern struct {
	lang       *language.Language
	strictness Strictness
	source     string
	selector   string
	root       *patternNode
	vars       []string
}

// Option configures pattern compilation.
type Option func(*Pattern)

// WithStrictness overrides the default Smart strictness.
func WithStrictness(s Strictness) Option {
	return func(p *Pattern) { p.strictness = s }
}

// WithSelector compiles the source as a context snippet and uses its
// first descendant of the given kind as the effective pattern root.
// This lets a pattern target nodes that cannot be parsed standalone,
// such as a lone key-value pair.
func WithSelector(kind string) Option {
	return func(p *Pattern) { p.selector = kind }
}

// Compile parses a pattern source in the given language and builds the
// matchable form.
func Compile(lang *language.Language, source string, opts ...Option) (*Pattern, error) {
	p := &Pattern{
		lang:       lang,
		strictness: Smart,
		source:     source,
	}

	for _, opt := range opts {
		opt(p)
	}

	if strings.TrimSpace(source) == "" {
		return nil, &CompileError{Kind: ErrNoContent, Pattern: source, Detail: "empty pattern"}
	}

	processed := lang.PreProcessPattern(source)

	t, parseErr := tree.ParseString(context.Background(), lang, processed)
	if parseErr != nil {
		return nil, &CompileError{Kind: ErrInvalidPattern, Pattern: source, Detail: parseErr.Error()}
	}

	root := t.Root()
	if root.ChildCount() == 0 && root.Text() == "" {
		return nil, &CompileError{Kind: ErrNoContent, Pattern: source, Detail: "pattern parsed to nothing"}
	}

	start := root

	if p.selector != "" {
		found, ok := findSelector(root, p.selector)
		if !ok {
			return nil, &CompileError{
				Kind:    ErrSelectorMissing,
				Pattern: source,
				Detail:  fmt.Sprintf("no %q node inside context", p.selector),
			}
		}

		start = found
	} else {
		start = drillDown(start)
	}

	p.root = buildPatternNode(start, lang.ExpandoChar())
	p.vars = collectVars(p.root, nil)
	sort.Strings(p.vars)

	return p, nil
}

// MustCompile is Compile that panics on error, for tests and fixed
// built-in patterns.
func MustCompile(lang *language.Language, source string, opts ...Option) *Pattern {
	p, err := Compile(lang, source, opts...)
	if err != nil {
		panic(err)
	}

	return p
}

// Language returns the language the pattern was compiled for.
func (p *Pattern) Language() *language.Language { return p.lang }

// Strictness returns the pattern's matching strictness.
func (p *Pattern) Strictness() Strictness { return p.strictness }

// Source returns the original pattern source.
func (p *Pattern) Source() string { return p.source }

// DefinedVars returns the capturing meta-variable names that appear in
// the pattern, sorted and de-duplicated.
func (p *Pattern) DefinedVars() []string { return p.vars }

// findSelector returns the first node of the wanted kind in pre-order.
func findSelector(root tree.Node, kind string) (tree.Node, bool) {
	for n := range tree.PreOrder(root) {
		if n.Kind() == kind {
			return n, true
		}
	}

	return tree.Node{}, false
}

// drillDown descends through wrapper nodes that carry a single effective
// child, so a pattern source like "f($A)" matches call expressions rather
// than whole programs. A trailing missing or empty token (automatic
// semicolon recovery) does not stop the descent.
func drillDown(n tree.Node) tree.Node {
	for {
		children := n.Children()

		switch {
		case len(children) == 1:
			n = children[0]
		case len(children) == 2 && (children[1].IsMissing() || children[1].Text() == ""):
			n = children[0]
		default:
			return n
		}
	}
}

// buildPatternNode converts a parsed pattern tree into the compiled form,
// recognizing meta-variables in atomic positions.
func buildPatternNode(n tree.Node, expando rune) *patternNode {
	text := n.Text()

	if n.IsNamedLeaf() || n.IsError() {
		if mv, ok := ExtractMetaVar(text, expando); ok {
			return &patternNode{
				kind:  n.Kind(),
				field: n.Field(),
				named: n.IsNamed(),
				leaf:  true,
				mv:    &mv,
			}
		}
	}

	if n.IsLeaf() {
		return &patternNode{
			kind:  n.Kind(),
			text:  text,
			field: n.Field(),
			named: n.IsNamed(),
			leaf:  true,
		}
	}

	children := n.Children()

	out := &patternNode{
		kind:     n.Kind(),
		field:    n.Field(),
		named:    n.IsNamed(),
		children: make([]*patternNode, 0, len(children)),
	}

	for _, c := range children {
		out.children = append(out.children, buildPatternNode(c, expando))
	}

	return out
}

func collectVars(pn *patternNode, acc []string) []string {
	if pn.mv != nil && pn.mv.Capture {
		if !containsString(acc, pn.mv.Name) {
			acc = append(acc, pn.mv.Name)
		}
	}

	for _, c := range pn.children {
		acc = collectVars(c, acc)
	}

	return acc
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}

	return false
}
