package rule

import (
	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// insideRule matches when some ancestor of the node satisfies the inner
// rule. StopNeighbor inspects the parent only; StopEnd walks to the
// root; StopRule walks until (and including) the first ancestor matching
// the stop rule.
type insideRule struct {
	inner    Rule
	stopKind StopByKind
	stop     Rule
	field    string
}

func (r *insideRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	if r.field != "" && n.Field() != r.field {
		return env, false
	}

	parent, ok := n.Parent()
	if !ok {
		return env, false
	}

	switch r.stopKind {
	case StopNeighbor:
		return r.inner.Match(parent, env)
	case StopEnd:
		for anc := range n.Ancestors() {
			if out, matched := r.inner.Match(anc, env); matched {
				return out, true
			}
		}

		return env, false
	default:
		for anc := range n.Ancestors() {
			if out, matched := r.inner.Match(anc, env); matched {
				return out, true
			}

			if _, boundary := r.stop.Match(anc, matcher.Env{}); boundary {
				return env, false
			}
		}

		return env, false
	}
}

// hasRule matches when some node below satisfies the inner rule.
// StopNeighbor inspects direct children; StopEnd the whole subtree;
// StopRule descends until a boundary node matches the stop rule
// (the boundary node itself is still examined, its subtree is not).
type hasRule struct {
	inner    Rule
	stopKind StopByKind
	stop     Rule
	field    string
}

func (r *hasRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	if r.field != "" {
		child, ok := n.ChildByField(r.field)
		if !ok {
			return env, false
		}

		if r.stopKind == StopNeighbor {
			return r.inner.Match(child, env)
		}

		return r.search(child, env, true)
	}

	switch r.stopKind {
	case StopNeighbor:
		for _, child := range n.Children() {
			if out, matched := r.inner.Match(child, env); matched {
				return out, true
			}
		}

		return env, false
	default:
		return r.search(n, env, false)
	}
}

// search looks for an inner match below root (or at root itself when
// includeRoot is set), pruning at stop-rule boundaries.
func (r *hasRule) search(root tree.Node, env matcher.Env, includeRoot bool) (matcher.Env, bool) {
	var walk func(n tree.Node, isRoot bool) (matcher.Env, bool)

	walk = func(n tree.Node, isRoot bool) (matcher.Env, bool) {
		if !isRoot || includeRoot {
			if out, matched := r.inner.Match(n, env); matched {
				return out, true
			}

			if r.stop != nil && !isRoot {
				if _, boundary := r.stop.Match(n, matcher.Env{}); boundary {
					return env, false
				}
			}
		}

		for _, child := range n.Children() {
			if out, matched := walk(child, false); matched {
				return out, true
			}
		}

		return env, false
	}

	return walk(root, true)
}

// siblingRule implements precedes (forward: the matching sibling comes
// after the node) and follows (the matching sibling comes before it).
type siblingRule struct {
	inner    Rule
	stopKind StopByKind
	stop     Rule
	forward  bool
}

func (r *siblingRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	siblings := n.PrevAll()
	if r.forward {
		siblings = n.NextAll()
	}

	first := true

	for sib := range siblings {
		if out, matched := r.inner.Match(sib, env); matched {
			return out, true
		}

		if r.stopKind == StopNeighbor && first {
			return env, false
		}

		if r.stopKind == StopRule {
			if _, boundary := r.stop.Match(sib, matcher.Env{}); boundary {
				return env, false
			}
		}

		first = false
	}

	return env, false
}
