package rule

import (
	"regexp"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// patternRule matches a node against a compiled structural pattern.
type patternRule struct {
	pattern *matcher.Pattern
}

func (r *patternRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	return r.pattern.MatchWithEnv(n, env)
}

// kindRule matches a node by grammar kind. Aliases are expanded at
// compile time, so matching is one set lookup.
type kindRule struct {
	kinds map[string]struct{}
}

func (r *kindRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	_, ok := r.kinds[n.Kind()]

	return env, ok
}

// regexRule matches when the node's text matches the expression.
type regexRule struct {
	re *regexp.Regexp
}

func (r *regexRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	return env, r.re.MatchString(n.Text())
}

// rangeRule matches a node occupying exactly the configured range.
type rangeRule struct {
	span RangeSpec
}

func (r *rangeRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	start, end := n.StartPoint(), n.EndPoint()

	ok := int(start.Row) == r.span.Start.Line &&
		int(start.Column) == r.span.Start.Column &&
		int(end.Row) == r.span.End.Line &&
		int(end.Column) == r.span.End.Column

	return env, ok
}

// nthChildRule matches a node by its position among its parent's named
// children, CSS :nth-child style.
type nthChildRule struct {
	step    int
	offset  int
	ofRule  Rule
	reverse bool
}

func (r *nthChildRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	parent, ok := n.Parent()
	if !ok {
		return env, false
	}

	siblings := parent.NamedChildren()

	if r.ofRule != nil {
		filtered := make([]tree.Node, 0, len(siblings))

		for _, s := range siblings {
			if _, matched := r.ofRule.Match(s, matcher.Env{}); matched {
				filtered = append(filtered, s)
			}
		}

		siblings = filtered
	}

	pos := -1

	for i, s := range siblings {
		if s == n {
			pos = i + 1
			break
		}
	}

	if pos < 0 {
		return env, false
	}

	if r.reverse {
		pos = len(siblings) - pos + 1
	}

	return env, r.matchesPosition(pos)
}

// matchesPosition checks pos against the An+B formula: pos is accepted
// when pos = step*k + offset for some k >= 0.
func (r *nthChildRule) matchesPosition(pos int) bool {
	if r.step == 0 {
		return pos == r.offset
	}

	k := pos - r.offset
	if k*r.step < 0 {
		return false
	}

	return k%r.step == 0
}
