package rule

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Sumatoshi-tech/treegrep/pkg/toposort"
)

// Registry holds named utility rules referenced via "matches".
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register stores a compiled rule under name, replacing any previous one.
func (r *Registry) Register(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules[name] = rule
}

// Get returns the rule registered under name.
func (r *Registry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[name]

	return rule, ok
}

// Names returns the registered utility names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// CompileUtils compiles a set of named utility specs into the compiler's
// registry. References between utilities are validated first: every
// "matches" target must exist in the set (or already be registered) and
// the reference graph must be acyclic.
func (c *Compiler) CompileUtils(utils map[string]*Spec) error {
	if len(utils) == 0 {
		return nil
	}

	graph := toposort.NewGraph()

	names := make([]string, 0, len(utils))
	for name := range utils {
		names = append(names, name)
		graph.AddNode(name)
	}

	sort.Strings(names)

	for _, name := range names {
		for _, ref := range collectRefs(utils[name], nil) {
			if _, defined := utils[ref]; !defined {
				if _, registered := c.registry.Get(ref); !registered {
					return &CompileError{
						Kind:   ErrUndefinedUtil,
						Detail: fmt.Sprintf("%s references undefined utility %q", name, ref),
					}
				}

				continue
			}

			graph.AddEdge(name, ref)
		}
	}

	if _, ok := graph.Toposort(); !ok {
		cycle := []string{}

		for _, name := range names {
			if found := graph.FindCycle(name); len(found) > 0 {
				cycle = found
				break
			}
		}

		return &CompileError{
			Kind:   ErrCyclicUtil,
			Detail: "cyclic utility reference: " + strings.Join(cycle, " -> "),
		}
	}

	for _, name := range names {
		compiled, err := c.Compile(utils[name])
		if err != nil {
			return fmt.Errorf("utility %s: %w", name, err)
		}

		c.registry.Register(name, compiled)
	}

	return nil
}

// collectRefs gathers every "matches" reference inside a spec, including
// nested composite and relational branches.
func collectRefs(spec *Spec, acc []string) []string {
	if spec == nil {
		return acc
	}

	if spec.Matches != "" {
		acc = append(acc, spec.Matches)
	}

	for _, rel := range []*RelationSpec{spec.Inside, spec.Has, spec.Precedes, spec.Follows} {
		if rel == nil {
			continue
		}

		acc = collectRefs(rel.Rule, acc)
		acc = collectRefs(rel.StopBy.Rule, acc)
	}

	for _, sub := range spec.All {
		acc = collectRefs(sub, acc)
	}

	for _, sub := range spec.Any {
		acc = collectRefs(sub, acc)
	}

	acc = collectRefs(spec.Not, acc)

	if spec.NthChild != nil {
		acc = collectRefs(spec.NthChild.OfRule, acc)
	}

	return acc
}
