package matcher

import (
	"sort"

	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// Env is an immutable meta-variable binding environment. The zero value
// is the empty environment. Bind and Merge never mutate their receiver;
// they return a fresh environment, so a failed sub-match can simply drop
// its copy and the caller's bindings stay intact.
type Env struct {
	single      map[string]tree.Node
	multi       map[string][]tree.Node
	transformed map[string]string
}

// Get returns the node bound to a single meta-variable.
func (e Env) Get(name string) (tree.Node, bool) {
	n, ok := e.single[name]

	return n, ok
}

// GetMulti returns the node list bound to a multi meta-variable.
func (e Env) GetMulti(name string) ([]tree.Node, bool) {
	ns, ok := e.multi[name]

	return ns, ok
}

// GetTransformed returns the string produced for name by a transformation.
func (e Env) GetTransformed(name string) (string, bool) {
	s, ok := e.transformed[name]

	return s, ok
}

// Bind binds a single meta-variable. When the name is already bound the
// new node must be structurally equal to the existing binding; otherwise
// the bind fails and the original environment is unchanged.
func (e Env) Bind(name string, n tree.Node) (Env, bool) {
	if prev, ok := e.single[name]; ok {
		if !NodesEqual(prev, n) {
			return e, false
		}

		return e, true
	}

	out := e.clone()
	out.single[name] = n

	return out, true
}

// BindMulti binds a multi meta-variable to a node list. Rebinding requires
// element-wise structural equality with the existing list.
func (e Env) BindMulti(name string, nodes []tree.Node) (Env, bool) {
	if prev, ok := e.multi[name]; ok {
		if !nodeListsEqual(prev, nodes) {
			return e, false
		}

		return e, true
	}

	out := e.clone()
	out.multi[name] = nodes

	return out, true
}

// WithTransformed records a transformation result under name, shadowing
// nothing: transformed values live in their own namespace consulted first
// during template instantiation.
func (e Env) WithTransformed(name, value string) Env {
	out := e.clone()
	out.transformed[name] = value

	return out
}

// Merge combines two environments. Overlapping names must agree
// structurally or the merge fails.
func (e Env) Merge(other Env) (Env, bool) {
	out := e
	ok := false

	for name, n := range other.single {
		out, ok = out.Bind(name, n)
		if !ok {
			return e, false
		}
	}

	for name, ns := range other.multi {
		out, ok = out.BindMulti(name, ns)
		if !ok {
			return e, false
		}
	}

	for name, s := range other.transformed {
		out = out.WithTransformed(name, s)
	}

	return out, true
}

// Names returns all bound names (single, multi and transformed), sorted.
func (e Env) Names() []string {
	names := make([]string, 0, len(e.single)+len(e.multi)+len(e.transformed))

	for name := range e.single {
		names = append(names, name)
	}

	for name := range e.multi {
		names = append(names, name)
	}

	for name := range e.transformed {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (e Env) clone() Env {
	out := Env{
		single:      make(map[string]tree.Node, len(e.single)+1),
		multi:       make(map[string][]tree.Node, len(e.multi)),
		transformed: make(map[string]string, len(e.transformed)),
	}

	for k, v := range e.single {
		out.single[k] = v
	}

	for k, v := range e.multi {
		out.multi[k] = v
	}

	for k, v := range e.transformed {
		out.transformed[k] = v
	}

	return out
}

// NodesEqual reports structural equality of two nodes: same kind shape
// and the same leaf texts. Token spacing differences between the trees do
// not affect the result.
func NodesEqual(a, b tree.Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}

	if a.IsLeaf() || b.IsLeaf() {
		return a.Text() == b.Text()
	}

	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}

	for i := range ac {
		if !NodesEqual(ac[i], bc[i]) {
			return false
		}
	}

	return true
}

func nodeListsEqual(a, b []tree.Node) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !NodesEqual(a[i], b[i]) {
			return false
		}
	}

	return true
}
