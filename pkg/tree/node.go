package tree

import (
	"fmt"
	"iter"
	"unsafe"

	"github.com/Sumatoshi-tech/treegrep/pkg/safeconv"
)

// Node is a lightweight handle to one arena record: the owning tree plus
// an index. Nodes are comparable; two handles are equal exactly when they
// name the same node of the same tree.
type Node struct {
	tree *Tree
	idx  int32
}

// IsZero reports whether the handle refers to no node.
func (n Node) IsZero() bool { return n.tree == nil }

// Tree returns the owning tree.
func (n Node) Tree() *Tree { return n.tree }

// ID returns the pre-order index of the node within its tree.
func (n Node) ID() int32 { return n.idx }

func (n Node) data() *nodeData { return &n.tree.nodes[n.idx] }

// Kind returns the grammar node type name.
func (n Node) Kind() string { return n.data().kind }

// Field returns the grammar field name linking the node to its parent,
// or "" when the child is not a field value.
func (n Node) Field() string { return n.data().field }

// StartByte returns the byte offset where the node's text begins.
func (n Node) StartByte() int { return safeconv.MustUint32ToInt(n.data().startByte) }

// EndByte returns the byte offset one past the node's text.
func (n Node) EndByte() int { return safeconv.MustUint32ToInt(n.data().endByte) }

// StartPoint returns the zero-based line/column where the node begins.
func (n Node) StartPoint() Point { return n.data().startPoint }

// EndPoint returns the zero-based line/column one past the node's end.
func (n Node) EndPoint() Point { return n.data().endPoint }

// Text returns the node's source text as a zero-copy view into the
// tree's source buffer.
func (n Node) Text() string {
	d := n.data()

	b := n.tree.source[d.startByte:d.endByte]
	if len(b) == 0 {
		return ""
	}

	return unsafe.String(&b[0], len(b))
}

// IsNamed reports whether the node is a named grammar node (as opposed to
// an anonymous token such as punctuation).
func (n Node) IsNamed() bool { return n.data().named }

// IsError reports whether the node is a parse error node.
func (n Node) IsError() bool { return n.data().errNode }

// IsMissing reports whether the node was inserted by error recovery.
func (n Node) IsMissing() bool { return n.data().missing }

// IsLeaf reports whether the node has no children at all.
func (n Node) IsLeaf() bool { return len(n.data().children) == 0 }

// IsNamedLeaf reports whether the node has no named descendants. Such a
// node is atomic for matching purposes even when it still carries
// anonymous tokens.
func (n Node) IsNamedLeaf() bool {
	for _, c := range n.Children() {
		if c.IsNamed() {
			return false
		}
	}

	return true
}

// Parent returns the parent node, or ok=false at the root.
func (n Node) Parent() (Node, bool) {
	p := n.data().parent
	if p < 0 {
		return Node{}, false
	}

	return Node{tree: n.tree, idx: p}, true
}

// ChildCount returns the number of children, anonymous tokens included.
func (n Node) ChildCount() int { return len(n.data().children) }

// Child returns the i-th child.
func (n Node) Child(i int) Node {
	return Node{tree: n.tree, idx: n.data().children[i]}
}

// Children returns all children in order.
func (n Node) Children() []Node {
	ids := n.data().children

	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, idx: id}
	}

	return out
}

// NamedChildren returns the named children in order.
func (n Node) NamedChildren() []Node {
	ids := n.data().children

	out := make([]Node, 0, len(ids))

	for _, id := range ids {
		if n.tree.nodes[id].named {
			out = append(out, Node{tree: n.tree, idx: id})
		}
	}

	return out
}

// ChildByField returns the first child stored under the given grammar
// field name.
func (n Node) ChildByField(name string) (Node, bool) {
	for _, id := range n.data().children {
		if n.tree.nodes[id].field == name {
			return Node{tree: n.tree, idx: id}, true
		}
	}

	return Node{}, false
}

// childPosition returns the index of n within its parent's child list,
// or -1 at the root.
func (n Node) childPosition() int {
	parent, ok := n.Parent()
	if !ok {
		return -1
	}

	for i, id := range parent.data().children {
		if id == n.idx {
			return i
		}
	}

	return -1
}

// NextSibling returns the sibling immediately after n.
func (n Node) NextSibling() (Node, bool) {
	parent, ok := n.Parent()
	if !ok {
		return Node{}, false
	}

	pos := n.childPosition()
	if pos+1 >= parent.ChildCount() {
		return Node{}, false
	}

	return parent.Child(pos + 1), true
}

// PrevSibling returns the sibling immediately before n.
func (n Node) PrevSibling() (Node, bool) {
	parent, ok := n.Parent()
	if !ok {
		return Node{}, false
	}

	pos := n.childPosition()
	if pos <= 0 {
		return Node{}, false
	}

	return parent.Child(pos - 1), true
}

// NextAll yields the siblings after n, nearest first.
func (n Node) NextAll() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		parent, ok := n.Parent()
		if !ok {
			return
		}

		for i := n.childPosition() + 1; i < parent.ChildCount(); i++ {
			if !yield(parent.Child(i)) {
				return
			}
		}
	}
}

// PrevAll yields the siblings before n, nearest first.
func (n Node) PrevAll() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		parent, ok := n.Parent()
		if !ok {
			return
		}

		for i := n.childPosition() - 1; i >= 0; i-- {
			if !yield(parent.Child(i)) {
				return
			}
		}
	}
}

// Ancestors yields the ancestors of n, nearest first, root last.
func (n Node) Ancestors() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		cur, ok := n.Parent()
		for ok {
			if !yield(cur) {
				return
			}

			cur, ok = cur.Parent()
		}
	}
}

// DescendantCount returns the number of nodes strictly below n.
func (n Node) DescendantCount() int { return int(n.data().subtree) }

// Contains reports whether other lies within n's subtree (self excluded).
func (n Node) Contains(other Node) bool {
	return n.tree == other.tree && other.idx > n.idx && other.idx <= n.idx+n.data().subtree
}

// String renders the node for debugging and log output.
func (n Node) String() string {
	if n.IsZero() {
		return "<nil node>"
	}

	return fmt.Sprintf("%s[%d..%d)", n.Kind(), n.StartByte(), n.EndByte())
}
