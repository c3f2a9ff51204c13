package tree

import "iter"

// PreOrder yields n and all its descendants in pre-order (a node before
// its children, children left to right). The traversal uses an explicit
// stack, so arbitrarily deep trees cannot exhaust the goroutine stack.
// The sequence is stateless and can be re-ranged from the start.
func PreOrder(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		stack := []Node{n}

		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(cur) {
				return
			}

			children := cur.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// PreOrderRecursive is the recursive twin of PreOrder. Both traversals
// yield exactly the same sequence; the recursive form exists because it
// is the natural shape for small subtrees and keeps the iterative one
// honest in tests.
func PreOrderRecursive(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var walk func(Node) bool

		walk = func(cur Node) bool {
			if !yield(cur) {
				return false
			}

			for _, c := range cur.Children() {
				if !walk(c) {
					return false
				}
			}

			return true
		}

		walk(n)
	}
}

// Descendants yields every node strictly below n in pre-order. Because
// the arena stores nodes in pre-order, this is a flat index scan.
func Descendants(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		end := n.idx + n.data().subtree
		for idx := n.idx + 1; idx <= end; idx++ {
			if !yield(Node{tree: n.tree, idx: idx}) {
				return
			}
		}
	}
}
