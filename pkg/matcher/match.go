package matcher

import "github.com/Sumatoshi-tech/treegrep/pkg/tree"

// Match attempts to match the pattern against a single node, starting
// from the empty environment. Failure is not an error; it is the normal
// outcome for most nodes.
func (p *Pattern) Match(n tree.Node) (Env, bool) {
	return p.MatchWithEnv(n, Env{})
}

// MatchWithEnv matches against a node with pre-existing bindings, which
// repeated meta-variables must agree with.
func (p *Pattern) MatchWithEnv(n tree.Node, env Env) (Env, bool) {
	return p.matchNode(p.root, n, env)
}

// matchNode matches one pattern node against one candidate node.
func (p *Pattern) matchNode(goal *patternNode, cand tree.Node, env Env) (Env, bool) {
	if goal.mv != nil {
		return p.matchMetaVar(goal, cand, env)
	}

	if goal.kind != cand.Kind() {
		return env, false
	}

	if goal.leaf {
		if p.leafTextIgnored(goal, cand) {
			return env, true
		}

		if goal.text == cand.Text() {
			return env, true
		}

		return env, false
	}

	goals := p.filterPatternChildren(goal.children)
	cands := p.filterCandidateChildren(cand.Children())

	return p.matchChildren(goals, cands, env)
}

// matchMetaVar matches a meta-variable goal against one candidate node.
// A multi meta-variable standing alone (outside a child list) absorbs
// exactly the one candidate; as in list position, only named nodes enter
// the binding, so an anonymous candidate binds an empty list.
func (p *Pattern) matchMetaVar(goal *patternNode, cand tree.Node, env Env) (Env, bool) {
	mv := goal.mv

	if !mv.Multi && goal.named && !cand.IsNamed() {
		return env, false
	}

	if !mv.Capture {
		return env, true
	}

	if mv.Multi {
		return env.BindMulti(mv.Name, namedOnly([]tree.Node{cand}))
	}

	return env.Bind(mv.Name, cand)
}

// matchChildren aligns a pattern child list with a candidate child list.
//
// Fixed goals consume candidates in order; a candidate that fails a fixed
// goal may be skipped only when it is trivial under the current
// strictness. A multi meta-variable absorbs a run of candidates; the
// absorption length is decided by trying counts from zero upward and
// validating that the remaining goals still match, so the leftmost
// viable split wins.
func (p *Pattern) matchChildren(goals []*patternNode, cands []tree.Node, env Env) (Env, bool) {
	if len(goals) == 0 {
		for _, c := range cands {
			if !p.trivial(c) {
				return env, false
			}
		}

		return env, true
	}

	goal := goals[0]

	if goal.mv != nil && goal.mv.Multi {
		return p.matchEllipsis(goal.mv, goals[1:], cands, env)
	}

	for i, c := range cands {
		if next, ok := p.matchNode(goal, c, env); ok {
			return p.matchChildren(goals[1:], cands[i+1:], next)
		}

		if !p.trivial(c) {
			return env, false
		}
	}

	return env, false
}

// matchEllipsis resolves one multi meta-variable inside a child list.
func (p *Pattern) matchEllipsis(mv *MetaVar, rest []*patternNode, cands []tree.Node, env Env) (Env, bool) {
	for take := 0; take <= len(cands); take++ {
		bound := env
		ok := true

		if mv.Capture {
			bound, ok = env.BindMulti(mv.Name, namedOnly(cands[:take]))
		}

		if ok {
			if final, matched := p.matchChildren(rest, cands[take:], bound); matched {
				return final, true
			}
		}
	}

	return env, false
}

// namedOnly projects a candidate run onto its named nodes; separators and
// other anonymous tokens do not appear in multi bindings.
func namedOnly(nodes []tree.Node) []tree.Node {
	out := make([]tree.Node, 0, len(nodes))

	for _, n := range nodes {
		if n.IsNamed() {
			out = append(out, n)
		}
	}

	return out
}

// trivial reports whether an unmatched candidate node may be silently
// skipped during child alignment.
func (p *Pattern) trivial(n tree.Node) bool {
	switch p.strictness {
	case Cst:
		return false
	default:
		return !n.IsNamed()
	}
}

// leafTextIgnored reports whether leaf text comparison is suppressed for
// this goal. Under Signature strictness named leaves compare by kind only.
func (p *Pattern) leafTextIgnored(goal *patternNode, cand tree.Node) bool {
	return p.strictness == Signature && goal.named && cand.IsNamed()
}

// filterPatternChildren drops pattern-side children that the strictness
// level declares insignificant.
func (p *Pattern) filterPatternChildren(children []*patternNode) []*patternNode {
	if p.strictness == Cst || p.strictness == Smart {
		return children
	}

	out := make([]*patternNode, 0, len(children))

	for _, c := range children {
		if !c.named {
			continue
		}

		if p.strictness != Ast && p.lang.IsCommentKind(c.kind) {
			continue
		}

		out = append(out, c)
	}

	return out
}

// filterCandidateChildren drops candidate-side children that the
// strictness level declares insignificant.
func (p *Pattern) filterCandidateChildren(children []tree.Node) []tree.Node {
	if p.strictness == Cst || p.strictness == Smart {
		return children
	}

	out := make([]tree.Node, 0, len(children))

	for _, c := range children {
		if !c.IsNamed() {
			continue
		}

		if p.strictness != Ast && p.lang.IsCommentKind(c.Kind()) {
			continue
		}

		out = append(out, c)
	}

	return out
}
