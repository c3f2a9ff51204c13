package rule

import (
	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// allRule matches when every part matches. The environment threads
// through the parts in order, so bindings made by one part constrain the
// next; a binding conflict fails the whole conjunction.
type allRule struct {
	parts []Rule
}

func (r *allRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	out := env
	ok := false

	for _, part := range r.parts {
		out, ok = part.Match(n, out)
		if !ok {
			return env, false
		}
	}

	return out, true
}

// anyRule matches when at least one part matches. Every branch starts
// from the caller's environment; only the winning branch's bindings
// survive.
type anyRule struct {
	parts []Rule
}

func (r *anyRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	for _, part := range r.parts {
		if out, ok := part.Match(n, env); ok {
			return out, true
		}
	}

	return env, false
}

// notRule inverts its inner rule and never contributes bindings.
type notRule struct {
	inner Rule
}

func (r *notRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	if _, ok := r.inner.Match(n, env); ok {
		return env, false
	}

	return env, true
}

// refRule resolves a "matches" reference against the utility registry at
// match time, which lets utilities reference each other in any
// declaration order.
type refRule struct {
	name     string
	registry *Registry
}

func (r *refRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	target, ok := r.registry.Get(r.name)
	if !ok {
		return env, false
	}

	return target.Match(n, env)
}

// constraintsRule wraps a rule with per-variable sub-rules checked after
// the inner rule matched and produced its bindings.
type constraintsRule struct {
	inner       Rule
	constraints map[string]Rule
}

// WithConstraints attaches per-meta-variable constraints to a compiled
// rule. Each constrained variable must be bound by the inner rule and its
// bound node(s) must satisfy the constraint.
func WithConstraints(inner Rule, constraints map[string]Rule) Rule {
	if len(constraints) == 0 {
		return inner
	}

	return &constraintsRule{inner: inner, constraints: constraints}
}

func (r *constraintsRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	out, ok := r.inner.Match(n, env)
	if !ok {
		return env, false
	}

	for name, constraint := range r.constraints {
		if bound, isSingle := out.Get(name); isSingle {
			out, ok = constraint.Match(bound, out)
			if !ok {
				return env, false
			}

			continue
		}

		nodes, isMulti := out.GetMulti(name)
		if !isMulti {
			return env, false
		}

		for _, bound := range nodes {
			out, ok = constraint.Match(bound, out)
			if !ok {
				return env, false
			}
		}
	}

	return out, true
}
