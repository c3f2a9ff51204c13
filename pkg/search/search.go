// Package search drives rule evaluation over whole trees: lazy pre-order
// enumeration of matches, including matches nested inside other matches.
package search

import (
	"iter"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/rule"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Match pairs a matched node with the meta-variable bindings the match
// produced.
type Match struct {
	node tree.Node
	env  matcher.Env
}

// Node returns the matched node.
func (m Match) Node() tree.Node { return m.node }

// Env returns the meta-variable environment of the match.
func (m Match) Env() matcher.Env { return m.env }

// Range returns the matched byte range [start, end).
func (m Match) Range() (start, end int) {
	return m.node.StartByte(), m.node.EndByte()
}

// Text returns the matched source text.
func (m Match) Text() string { return m.node.Text() }

// All lazily yields every match of the rule in the tree, in pre-order of
// the matched node. Matching does not stop inside a matched subtree, so
// nested matches are yielded too. The sequence is re-iterable; each range
// restarts the search from the root.
func All(t *tree.Tree, r rule.Rule) iter.Seq[Match] {
	return AllFrom(t.Root(), r)
}

// AllFrom is All restricted to one subtree (the root node included).
func AllFrom(n tree.Node, r rule.Rule) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for cand := range tree.PreOrder(n) {
			if env, ok := r.Match(cand, matcher.Env{}); ok {
				if !yield(Match{node: cand, env: env}) {
					return
				}
			}
		}
	}
}

// AllRecursive yields exactly the sequence All yields, driven by the
// recursive traversal instead of the explicit stack. It exists so the two
// traversal strategies keep each other honest.
func AllRecursive(t *tree.Tree, r rule.Rule) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for cand := range tree.PreOrderRecursive(t.Root()) {
			if env, ok := r.Match(cand, matcher.Env{}); ok {
				if !yield(Match{node: cand, env: env}) {
					return
				}
			}
		}
	}
}

// First returns the first match in pre-order, examining no more of the
// tree than necessary.
func First(t *tree.Tree, r rule.Rule) (Match, bool) {
	for m := range All(t, r) {
		return m, true
	}

	return Match{}, false
}

// Collect drains a match sequence into a slice.
func Collect(seq iter.Seq[Match]) []Match {
	var out []Match

	for m := range seq {
		out = append(out, m)
	}

	return out
}
