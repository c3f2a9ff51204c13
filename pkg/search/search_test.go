package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/rule"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

func setup(t *testing.T, src, pattern string) (*tree.Tree, rule.Rule) {
	t.Helper()

	js, ok := language.Get("javascript")
	require.True(t, ok)

	tr, err := tree.ParseString(context.Background(), js, src)
	require.NoError(t, err)

	c := rule.NewCompiler(js)

	r, err := c.CompilePattern(pattern)
	require.NoError(t, err)

	return tr, r
}

func TestAllYieldsNestedMatches(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "f(f(1))", "f($A)")

	matches := Collect(All(tr, r))
	require.Len(t, matches, 2)

	assert.Equal(t, "f(f(1))", matches[0].Text())
	assert.Equal(t, "f(1)", matches[1].Text())

	outer, ok := matches[0].Env().Get("A")
	require.True(t, ok)
	assert.Equal(t, "f(1)", outer.Text())

	inner, ok := matches[1].Env().Get("A")
	require.True(t, ok)
	assert.Equal(t, "1", inner.Text())
}

func TestAllPreOrder(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "a(); b(); c();", "$F()")

	var texts []string

	for m := range All(tr, r) {
		texts = append(texts, m.Text())
	}

	assert.Equal(t, []string{"a()", "b()", "c()"}, texts)
}

func TestAllLazy(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "a(); b(); c();", "$F()")

	count := 0

	for range All(tr, r) {
		count++
		if count == 1 {
			break
		}
	}

	assert.Equal(t, 1, count)
}

func TestAllReIterable(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "a(); b();", "$F()")

	seq := All(tr, r)

	first := Collect(seq)
	second := Collect(seq)

	assert.Equal(t, len(first), len(second), "the sequence restarts cleanly")
}

func TestRecursiveIterativeParity(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "function f() { g(h(1)); if (x) { g(2) } }", "g($A)")

	var iterative, recursive []int32

	for m := range All(tr, r) {
		iterative = append(iterative, m.Node().ID())
	}

	for m := range AllRecursive(tr, r) {
		recursive = append(recursive, m.Node().ID())
	}

	require.NotEmpty(t, iterative)
	assert.Equal(t, iterative, recursive)
}

func TestFirst(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "a(); b();", "$F()")

	m, ok := First(tr, r)
	require.True(t, ok)
	assert.Equal(t, "a()", m.Text())

	start, end := m.Range()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}

func TestFirstNoMatch(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "let x = 1", "$F()")

	_, ok := First(tr, r)
	assert.False(t, ok)
}

func TestAllFromSubtree(t *testing.T) {
	t.Parallel()

	tr, r := setup(t, "f(1); g(2);", "$F($A)")

	stmts := tr.Root().NamedChildren()
	require.Len(t, stmts, 2)

	matches := Collect(AllFrom(stmts[1], r))
	require.Len(t, matches, 1)
	assert.Equal(t, "g(2)", matches[0].Text())
}
