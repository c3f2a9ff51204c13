package edit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/rule"
	"github.com/Sumatoshi-tech/treegrep/pkg/search"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

func jsTree(t *testing.T, src string) *tree.Tree {
	t.Helper()

	js, ok := language.Get("javascript")
	require.True(t, ok)

	tr, err := tree.ParseString(context.Background(), js, src)
	require.NoError(t, err)

	return tr
}

// matcherRule adapts a bare pattern to the rule interface for tests.
type matcherRule struct {
	p *matcher.Pattern
}

func (r matcherRule) Match(n tree.Node, env matcher.Env) (matcher.Env, bool) {
	return r.p.MatchWithEnv(n, env)
}

func matchPattern(t *testing.T, src, pattern string) search.Match {
	t.Helper()

	js, ok := language.Get("javascript")
	require.True(t, ok)

	tr := jsTree(t, src)
	p := matcher.MustCompile(js, pattern)

	m, found := search.First(tr, matcherRule{p})
	require.True(t, found, "pattern %q not found in %q", pattern, src)

	return m
}

func TestCommitNoEditsIsIdentity(t *testing.T) {
	t.Parallel()

	src := []byte("hello world")

	out, err := Commit(src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestCommitSingleEdit(t *testing.T) {
	t.Parallel()

	src := []byte("a = console.log(123)")

	out, err := Commit(src, []Edit{{Start: 4, End: 15, Text: "console.error"}})
	require.NoError(t, err)
	assert.Equal(t, "a = console.error(123)", string(out))
}

func TestCommitMultipleUnsorted(t *testing.T) {
	t.Parallel()

	src := []byte("aa bb cc")

	out, err := Commit(src, []Edit{
		{Start: 6, End: 8, Text: "CC"},
		{Start: 0, End: 2, Text: "AA"},
	})
	require.NoError(t, err)
	assert.Equal(t, "AA bb CC", string(out))
}

func TestCommitOverlapRejected(t *testing.T) {
	t.Parallel()

	src := []byte("0123456789")

	_, err := Commit(src, []Edit{
		{Start: 0, End: 5, Text: "x"},
		{Start: 3, End: 8, Text: "y"},
	})
	require.Error(t, err)

	var conflict *ConflictError

	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 0, conflict.First.Start)
	assert.Equal(t, 5, conflict.First.End)
	assert.Equal(t, 3, conflict.Second.Start)
	assert.Equal(t, 8, conflict.Second.End)
}

func TestCommitTouchingBoundaries(t *testing.T) {
	t.Parallel()

	src := []byte("abcdef")

	out, err := Commit(src, []Edit{
		{Start: 0, End: 3, Text: "X"},
		{Start: 3, End: 6, Text: "Y"},
	})
	require.NoError(t, err)
	assert.Equal(t, "XY", string(out))
}

func TestCommitInsertion(t *testing.T) {
	t.Parallel()

	src := []byte("ab")

	out, err := Commit(src, []Edit{{Start: 1, End: 1, Text: "-"}})
	require.NoError(t, err)
	assert.Equal(t, "a-b", string(out))
}

func TestCommitOutOfBounds(t *testing.T) {
	t.Parallel()

	src := []byte("ab")

	_, err := Commit(src, []Edit{{Start: 1, End: 5, Text: "x"}})
	require.Error(t, err)

	var bounds *BoundsError

	require.ErrorAs(t, err, &bounds)
	assert.Equal(t, 2, bounds.Length)
}

func TestReplaceRoundTrip(t *testing.T) {
	t.Parallel()

	src := "a = console.log(123)"
	m := matchPattern(t, src, "console.log")

	start, end := m.Range()
	assert.Equal(t, 4, start)
	assert.Equal(t, 15, end)

	out, err := Commit([]byte(src), []Edit{Replace(m.Node(), "console.error")})
	require.NoError(t, err)
	assert.Equal(t, "a = console.error(123)", string(out))
}

func TestTemplateRender(t *testing.T) {
	t.Parallel()

	m := matchPattern(t, "console.log(userName)", "console.log($MSG)")

	tpl := NewTemplate("logger.info($MSG)")
	assert.Equal(t, "logger.info(userName)", tpl.Render(m.Env()))
}

func TestTemplateMultiVar(t *testing.T) {
	t.Parallel()

	src := "f(1, 2)"
	m := matchPattern(t, src, "f($$$ARGS)")

	tpl := NewTemplate("g($$$ARGS)")

	out, err := Commit([]byte(src), []Edit{tpl.RenderEdit(m.Node(), m.Env())})
	require.NoError(t, err)
	assert.Equal(t, "g(1, 2)", string(out), "the separator between the bound nodes survives")
}

func TestTemplateUnknownVarRendersEmpty(t *testing.T) {
	t.Parallel()

	m := matchPattern(t, "f(1)", "f($A)")

	tpl := NewTemplate("g($MISSING)")
	assert.Equal(t, "g()", tpl.Render(m.Env()))
}

func TestTemplateLiteralDollar(t *testing.T) {
	t.Parallel()

	m := matchPattern(t, "f(x)", "f($A)")

	tpl := NewTemplate("price: $5 for $A")
	assert.Equal(t, "price: $5 for x", tpl.Render(m.Env()))
}

func TestSubstringTransform(t *testing.T) {
	t.Parallel()

	m := matchPattern(t, "f(abcdef)", "f($A)")

	one := 1
	minusOne := -1

	transforms, err := CompileTransforms(nil, []TransformSpec{{
		Name:      "MID",
		Substring: &SubstringSpec{Source: "$A", StartChar: &one, EndChar: &minusOne},
	}})
	require.NoError(t, err)

	env, err := ApplyTransforms(m.Env(), transforms)
	require.NoError(t, err)

	got, ok := env.GetTransformed("MID")
	require.True(t, ok)
	assert.Equal(t, "bcde", got)
}

func TestReplaceTransform(t *testing.T) {
	t.Parallel()

	m := matchPattern(t, "f(getUserName)", "f($A)")

	transforms, err := CompileTransforms(nil, []TransformSpec{{
		Name:    "STRIPPED",
		Replace: &ReplaceSpec{Source: "$A", Replace: "^get", By: ""},
	}})
	require.NoError(t, err)

	env, err := ApplyTransforms(m.Env(), transforms)
	require.NoError(t, err)

	got, ok := env.GetTransformed("STRIPPED")
	require.True(t, ok)
	assert.Equal(t, "UserName", got)
}

func TestConvertTransform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		toCase string
		in     string
		want   string
	}{
		{toCase: CaseCamel, in: "user_account_name", want: "userAccountName"},
		{toCase: CaseSnake, in: "getUserName", want: "get_user_name"},
		{toCase: CaseKebab, in: "getUserName", want: "get-user-name"},
		{toCase: CasePascal, in: "user-name", want: "UserName"},
		{toCase: CaseUpper, in: "abc", want: "ABC"},
		{toCase: CaseLower, in: "AbC", want: "abc"},
		{toCase: CaseCapitalize, in: "abc", want: "Abc"},
	}

	for _, tt := range tests {
		t.Run(tt.toCase+"/"+tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := convertCase(tt.in, tt.toCase, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertTransformBadCase(t *testing.T) {
	t.Parallel()

	_, err := CompileTransforms(nil, []TransformSpec{{
		Name:    "X",
		Convert: &ConvertSpec{Source: "$A", ToCase: "shoutyCase"},
	}})
	assert.Error(t, err)
}

func TestRewriteTransform(t *testing.T) {
	t.Parallel()

	js, ok := language.Get("javascript")
	require.True(t, ok)

	m := matchPattern(t, "f(1, 2)", "f($$$NUMS)")

	c := rule.NewCompiler(js)

	transforms, err := CompileTransforms(c, []TransformSpec{{
		Name: "WRAPPED",
		Rewrite: &RewriteSpec{
			Source:   "$NUMS",
			Rule:     &rule.Spec{Kind: "number"},
			Template: "wrap(0)",
			JoinBy:   " + ",
		},
	}})
	require.NoError(t, err)

	env, err := ApplyTransforms(m.Env(), transforms)
	require.NoError(t, err)

	got, bound := env.GetTransformed("WRAPPED")
	require.True(t, bound)
	assert.Equal(t, "wrap(0) + wrap(0)", got)
}

func TestChainedTransforms(t *testing.T) {
	t.Parallel()

	m := matchPattern(t, "f(user_name)", "f($A)")

	transforms, err := CompileTransforms(nil, []TransformSpec{
		{
			Name:    "CAMEL",
			Convert: &ConvertSpec{Source: "$A", ToCase: CaseCamel},
		},
		{
			Name:    "SHOUT",
			Convert: &ConvertSpec{Source: "$CAMEL", ToCase: CaseUpper},
		},
	})
	require.NoError(t, err)

	env, err := ApplyTransforms(m.Env(), transforms)
	require.NoError(t, err)

	got, ok := env.GetTransformed("SHOUT")
	require.True(t, ok)
	assert.Equal(t, "USERNAME", got)
}
