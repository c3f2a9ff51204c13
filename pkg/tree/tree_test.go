package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
)

func mustLang(t *testing.T, name string) *language.Language {
	t.Helper()

	lang, ok := language.Get(name)
	require.True(t, ok, "language %s must be registered", name)

	return lang
}

func TestParseString(t *testing.T) {
	t.Parallel()

	js := mustLang(t, "javascript")

	tr, err := ParseString(context.Background(), js, "a = console.log(123)")
	require.NoError(t, err)

	root := tr.Root()
	assert.Equal(t, "program", root.Kind())
	assert.Equal(t, 0, root.StartByte())
	assert.Equal(t, 20, root.EndByte())
	assert.Equal(t, "a = console.log(123)", root.Text())
	assert.True(t, root.IsNamed())
}

func TestNodeNavigation(t *testing.T) {
	t.Parallel()

	js := mustLang(t, "javascript")

	tr, err := ParseString(context.Background(), js, "f(1, 2)")
	require.NoError(t, err)

	var call Node

	for n := range PreOrder(tr.Root()) {
		if n.Kind() == "call_expression" {
			call = n
			break
		}
	}

	require.False(t, call.IsZero())

	fn, ok := call.ChildByField("function")
	require.True(t, ok)
	assert.Equal(t, "f", fn.Text())

	args, ok := call.ChildByField("arguments")
	require.True(t, ok)

	named := args.NamedChildren()
	require.Len(t, named, 2)
	assert.Equal(t, "1", named[0].Text())
	assert.Equal(t, "2", named[1].Text())

	// Anonymous tokens are still children.
	assert.Greater(t, args.ChildCount(), 2)

	next, ok := named[0].NextSibling()
	require.True(t, ok)
	assert.Equal(t, ",", next.Text())

	parent, ok := named[0].Parent()
	require.True(t, ok)
	assert.Equal(t, args, parent)
}

func TestTraversalParity(t *testing.T) {
	t.Parallel()

	js := mustLang(t, "javascript")

	tr, err := ParseString(context.Background(), js, "function f(a) { return g(a + 1); }")
	require.NoError(t, err)

	var iterative, recursive, flat []int32

	for n := range PreOrder(tr.Root()) {
		iterative = append(iterative, n.ID())
	}

	for n := range PreOrderRecursive(tr.Root()) {
		recursive = append(recursive, n.ID())
	}

	flat = append(flat, tr.Root().ID())
	for n := range Descendants(tr.Root()) {
		flat = append(flat, n.ID())
	}

	assert.Equal(t, iterative, recursive, "stack and recursive traversals must agree")
	assert.Equal(t, iterative, flat, "arena order must be pre-order")
	assert.Len(t, iterative, tr.Len())
}

func TestTraversalEarlyStop(t *testing.T) {
	t.Parallel()

	js := mustLang(t, "javascript")

	tr, err := ParseString(context.Background(), js, "a; b; c;")
	require.NoError(t, err)

	count := 0

	for range PreOrder(tr.Root()) {
		count++
		if count == 3 {
			break
		}
	}

	assert.Equal(t, 3, count)
}

func TestContains(t *testing.T) {
	t.Parallel()

	js := mustLang(t, "javascript")

	tr, err := ParseString(context.Background(), js, "f(g(1))")
	require.NoError(t, err)

	root := tr.Root()

	for n := range Descendants(root) {
		assert.True(t, root.Contains(n))
	}

	assert.False(t, root.Contains(root), "a node does not contain itself")
}

func TestExpandoParsing(t *testing.T) {
	t.Parallel()

	goLang := mustLang(t, "go")

	src := goLang.PreProcessPattern("$A := $B")

	tr, err := ParseString(context.Background(), goLang, src)
	require.NoError(t, err)

	var idents []string

	for n := range PreOrder(tr.Root()) {
		if n.Kind() == "identifier" {
			idents = append(idents, n.Text())
		}
	}

	assert.Equal(t, []string{"µA", "µB"}, idents)
}

func TestParseErrorNodes(t *testing.T) {
	t.Parallel()

	js := mustLang(t, "javascript")

	tr, err := ParseString(context.Background(), js, "function (((")
	require.NoError(t, err, "malformed input still yields a tree")

	hasError := false

	for n := range PreOrder(tr.Root()) {
		if n.IsError() || n.IsMissing() {
			hasError = true
			break
		}
	}

	assert.True(t, hasError)
}

func TestPointTracking(t *testing.T) {
	t.Parallel()

	js := mustLang(t, "javascript")

	tr, err := ParseString(context.Background(), js, "a;\nb;\n")
	require.NoError(t, err)

	stmts := tr.Root().NamedChildren()
	require.Len(t, stmts, 2)

	assert.Equal(t, Point{Row: 0, Column: 0}, stmts[0].StartPoint())
	assert.Equal(t, Point{Row: 1, Column: 0}, stmts[1].StartPoint())
}
