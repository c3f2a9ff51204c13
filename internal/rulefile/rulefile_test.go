package rulefile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treegrep/pkg/edit"
	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/rule"
	"github.com/Sumatoshi-tech/treegrep/pkg/search"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

const simpleDoc = `
id: no-console-log
language: javascript
severity: warning
message: use the logger instead of console.log
rule:
  pattern: console.log($MSG)
fix: logger.info($MSG)
`

func TestLoadSingleDocument(t *testing.T) {
	t.Parallel()

	docs, err := Load(strings.NewReader(simpleDoc), "test.yaml")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "no-console-log", doc.ID)
	assert.Equal(t, "javascript", doc.Language)
	assert.Equal(t, SeverityWarning, doc.Severity)
	assert.Equal(t, "console.log($MSG)", doc.Rule.Pattern.Source)
	assert.Equal(t, "logger.info($MSG)", doc.Fix)
	assert.Equal(t, "test.yaml", doc.Path)
}

func TestLoadMultiDocument(t *testing.T) {
	t.Parallel()

	src := `
id: first
language: go
rule:
  kind: call_expression
---
id: second
language: go
rule:
  regex: "^Test"
`

	docs, err := Load(strings.NewReader(src), "multi.yaml")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "first", docs[0].ID)
	assert.Equal(t, 0, docs[0].Index)
	assert.Equal(t, "second", docs[1].ID)
	assert.Equal(t, 1, docs[1].Index)

	// No severity declared: the default applies.
	assert.Equal(t, SeverityHint, docs[0].Severity)
}

func TestLoadRejectsUnknownTopLevelKey(t *testing.T) {
	t.Parallel()

	src := `
id: typo
language: go
rulez:
  kind: call_expression
`

	_, err := Load(strings.NewReader(src), "typo.yaml")
	require.Error(t, err)

	var schemaErr *SchemaError

	assert.ErrorAs(t, err, &schemaErr)
}

func TestLoadRejectsBadSeverity(t *testing.T) {
	t.Parallel()

	src := `
id: x
language: go
severity: catastrophic
rule:
  kind: call_expression
`

	_, err := Load(strings.NewReader(src), "bad.yaml")
	require.Error(t, err)

	var schemaErr *SchemaError

	assert.ErrorAs(t, err, &schemaErr)
}

func TestLoadRejectsMissingRule(t *testing.T) {
	t.Parallel()

	src := "id: x\nlanguage: go\n"

	_, err := Load(strings.NewReader(src), "norule.yaml")
	assert.Error(t, err)
}

func TestPatternObjectForm(t *testing.T) {
	t.Parallel()

	src := `
id: pair-rule
language: javascript
rule:
  pattern:
    context: "a = {$KEY: $VAL}"
    selector: pair
    strictness: relaxed
`

	docs, err := Load(strings.NewReader(src), "obj.yaml")
	require.NoError(t, err)

	p := docs[0].Rule.Pattern
	assert.Empty(t, p.Source)
	assert.Equal(t, "a = {$KEY: $VAL}", p.Context)
	assert.Equal(t, "pair", p.Selector)
	assert.Equal(t, "relaxed", p.Strictness)
}

func TestStopByForms(t *testing.T) {
	t.Parallel()

	src := `
id: stopby
language: javascript
rule:
  kind: identifier
  inside:
    kind: function_declaration
    stopBy: end
  has:
    kind: number
    stopBy:
      kind: statement_block
  precedes:
    kind: string
`

	docs, err := Load(strings.NewReader(src), "stopby.yaml")
	require.NoError(t, err)

	spec := docs[0].Rule.Spec()

	assert.Equal(t, rule.StopEnd, spec.Inside.StopBy.Kind)

	require.Equal(t, rule.StopRule, spec.Has.StopBy.Kind)
	assert.Equal(t, "statement_block", spec.Has.StopBy.Rule.Kind)

	// No stopBy declared: neighbor is the default.
	assert.Equal(t, rule.StopNeighbor, spec.Precedes.StopBy.Kind)
}

func TestNthChildForms(t *testing.T) {
	t.Parallel()

	src := `
id: nth
language: javascript
rule:
  any:
    - nthChild: 2
    - nthChild: 2n+1
    - nthChild:
        position: 1
        reverse: true
        ofRule:
          kind: identifier
`

	docs, err := Load(strings.NewReader(src), "nth.yaml")
	require.NoError(t, err)

	anyOf := docs[0].Rule.Spec().Any
	require.Len(t, anyOf, 3)

	assert.Equal(t, "2", anyOf[0].NthChild.Position)
	assert.Equal(t, "2n+1", anyOf[1].NthChild.Position)
	assert.Equal(t, "1", anyOf[2].NthChild.Position)
	assert.True(t, anyOf[2].NthChild.Reverse)
	require.NotNil(t, anyOf[2].NthChild.OfRule)
	assert.Equal(t, "identifier", anyOf[2].NthChild.OfRule.Kind)
}

func TestTransformOrderPreserved(t *testing.T) {
	t.Parallel()

	src := `
id: transforms
language: javascript
rule:
  pattern: f($A)
transform:
  ZEBRA:
    convert:
      source: $A
      toCase: camelCase
  ALPHA:
    convert:
      source: $ZEBRA
      toCase: upperCase
`

	docs, err := Load(strings.NewReader(src), "transform.yaml")
	require.NoError(t, err)

	tm := docs[0].Transform
	require.NotNil(t, tm)
	assert.Equal(t, []string{"ZEBRA", "ALPHA"}, tm.Names)

	specs := tm.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "ZEBRA", specs[0].Name)
	assert.Equal(t, "$ZEBRA", specs[1].Convert.Source)
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(simpleDoc), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte(simpleDoc), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a rule"), 0o600))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestCompileAndRun(t *testing.T) {
	t.Parallel()

	docs, err := Load(strings.NewReader(simpleDoc), "test.yaml")
	require.NoError(t, err)

	compiled, err := Compile(docs[0], nil)
	require.NoError(t, err)
	require.True(t, compiled.HasFix())

	js, ok := language.Get("javascript")
	require.True(t, ok)

	source := "console.log(value); other()"

	tr, err := tree.ParseString(context.Background(), js, source)
	require.NoError(t, err)

	matches := search.Collect(search.All(tr, compiled.Rule))
	require.Len(t, matches, 1)

	m := matches[0]

	fixed, err := edit.Commit([]byte(source), []edit.Edit{compiled.Fix.RenderEdit(m.Node(), m.Env())})
	require.NoError(t, err)
	assert.Equal(t, "logger.info(value); other()", string(fixed))
}

func TestCompileUtilsAndConstraints(t *testing.T) {
	t.Parallel()

	src := `
id: guarded
language: javascript
rule:
  pattern: f($A)
constraints:
  A:
    kind: identifier
utils:
  is-call:
    kind: call_expression
`

	docs, err := Load(strings.NewReader(src), "guarded.yaml")
	require.NoError(t, err)

	compiled, err := Compile(docs[0], nil)
	require.NoError(t, err)

	js, ok := language.Get("javascript")
	require.True(t, ok)

	tr, err := tree.ParseString(context.Background(), js, "f(name); f(42)")
	require.NoError(t, err)

	matches := search.Collect(search.All(tr, compiled.Rule))
	require.Len(t, matches, 1, "the numeric argument violates the constraint")

	bound, ok := matches[0].Env().Get("A")
	require.True(t, ok)
	assert.Equal(t, "name", bound.Text())
}

func TestCompileUnknownLanguage(t *testing.T) {
	t.Parallel()

	src := `
id: x
language: cobol
rule:
  kind: paragraph
`

	docs, err := Load(strings.NewReader(src), "x.yaml")
	require.NoError(t, err)

	_, err = Compile(docs[0], nil)
	assert.Error(t, err)
}

func TestCompileAllSkipsOff(t *testing.T) {
	t.Parallel()

	src := `
id: active
language: javascript
rule:
  kind: call_expression
---
id: disabled
language: javascript
severity: "off"
rule:
  kind: call_expression
`

	docs, err := Load(strings.NewReader(src), "mix.yaml")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	rules, err := CompileAll(docs, nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "active", rules[0].ID)
}
