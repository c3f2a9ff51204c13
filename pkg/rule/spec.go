// Package rule compiles declarative rule specifications into matchers.
// A rule combines atomic conditions (pattern, kind, regex, range,
// nthChild), relational conditions over surrounding nodes (inside, has,
// precedes, follows) and boolean composition (all, any, not, matches).
package rule

import (
	"fmt"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Rule is a compiled rule. Match reports whether the node satisfies the
// rule and returns the environment extended with any new bindings.
// A false result leaves the input environment unchanged from the
// caller's perspective.
type Rule interface {
	Match(n tree.Node, env matcher.Env) (matcher.Env, bool)
}

// Spec is the structured form of one rule. Every populated field is a
// condition; a spec with several populated fields requires all of them
// (implicit "all" composition).
type Spec struct {
	// Atomic conditions.
	Pattern  *PatternSpec
	Kind     string
	Regex    string
	Range    *RangeSpec
	NthChild *NthChildSpec

	// Relational conditions.
	Inside   *RelationSpec
	Has      *RelationSpec
	Precedes *RelationSpec
	Follows  *RelationSpec

	// Composite conditions.
	All     []*Spec
	Any     []*Spec
	Not     *Spec
	Matches string
}

// PatternSpec configures a pattern condition. Either Source alone, or
// Context plus Selector for snippets that cannot parse standalone.
type PatternSpec struct {
	Source     string
	Context    string
	Selector   string
	Strictness string
}

// Position is a zero-based line/column location.
type Position struct {
	Line   int
	Column int
}

// RangeSpec matches a node occupying exactly the given source range.
type RangeSpec struct {
	Start Position
	End   Position
}

// NthChildSpec matches a node by its 1-based position among its parent's
// named children. Position accepts a plain number ("3") or a CSS-style
// An+B formula ("2n+1", "even", "odd").
type NthChildSpec struct {
	Position string
	OfRule   *Spec
	Reverse  bool
}

// StopByKind selects how far a relational search extends.
type StopByKind int

const (
	// StopNeighbor limits the search to the immediate neighbor
	// (parent, direct children, or adjacent sibling). The default.
	StopNeighbor StopByKind = iota

	// StopEnd extends the search to the end of the axis: all ancestors,
	// the whole subtree, or all siblings in the direction.
	StopEnd

	// StopRule extends the search until a node matching the stop rule is
	// reached. The boundary node itself is still examined.
	StopRule
)

// StopBy bounds a relational search.
type StopBy struct {
	Kind StopByKind
	Rule *Spec
}

// RelationSpec is the target of a relational condition.
type RelationSpec struct {
	Rule   *Spec
	StopBy StopBy
	Field  string
}

// CompileError kinds.
const (
	ErrEmptyRule     = "empty-rule"
	ErrBadPattern    = "bad-pattern"
	ErrBadRegex      = "bad-regex"
	ErrBadNthChild   = "bad-nth-child"
	ErrBadStrictness = "bad-strictness"
	ErrUndefinedUtil = "undefined-utility"
	ErrCyclicUtil    = "cyclic-utility"
)

// CompileError reports why a rule spec could not be compiled.
type CompileError struct {
	Kind   string
	Detail string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("rule: %s: %s", e.Kind, e.Detail)
}
