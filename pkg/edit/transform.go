package edit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/rule"
	"github.com/Sumatoshi-tech/treegrep/pkg/search"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// TransformSpec declares one named transformation. Exactly one of the
// operation fields must be set. Transforms are applied in declaration
// order, so a later transform may reference an earlier one's result.
type TransformSpec struct {
	Name      string
	Substring *SubstringSpec
	Replace   *ReplaceSpec
	Convert   *ConvertSpec
	Rewrite   *RewriteSpec
}

// SubstringSpec slices the source variable's text by character offsets.
// Negative offsets count from the end; nil means the respective edge.
type SubstringSpec struct {
	Source    string
	StartChar *int
	EndChar   *int
}

// ReplaceSpec rewrites every regex match in the source variable's text.
type ReplaceSpec struct {
	Source  string
	Replace string
	By      string
}

// ConvertSpec re-cases the source variable's text.
type ConvertSpec struct {
	Source      string
	ToCase      string
	SeparatedBy []string
}

// RewriteSpec applies a sub-rule and template to the node(s) bound to
// the source variable and joins the rewritten texts.
type RewriteSpec struct {
	Source   string
	Rule     *rule.Spec
	Template string
	JoinBy   string
}

// Transform is one compiled transformation.
type Transform struct {
	name string
	op   transformOp
}

type transformOp interface {
	apply(env matcher.Env) (string, error)
}

// Name returns the meta-variable name the transform defines.
func (t Transform) Name() string { return t.name }

// CompileTransforms validates and compiles a transform list. The rule
// compiler is needed for rewrite operations; it may be nil when no
// rewrite is present.
func CompileTransforms(c *rule.Compiler, specs []TransformSpec) ([]Transform, error) {
	out := make([]Transform, 0, len(specs))

	for _, spec := range specs {
		op, err := compileTransformOp(c, spec)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", spec.Name, err)
		}

		out = append(out, Transform{name: spec.Name, op: op})
	}

	return out, nil
}

// ApplyTransforms runs the transforms in order, extending the
// environment with each result.
func ApplyTransforms(env matcher.Env, transforms []Transform) (matcher.Env, error) {
	for _, t := range transforms {
		value, err := t.op.apply(env)
		if err != nil {
			return env, fmt.Errorf("transform %s: %w", t.name, err)
		}

		env = env.WithTransformed(t.name, value)
	}

	return env, nil
}

func compileTransformOp(c *rule.Compiler, spec TransformSpec) (transformOp, error) {
	switch {
	case spec.Substring != nil:
		return &substringOp{
			source: trimVarRef(spec.Substring.Source),
			start:  spec.Substring.StartChar,
			end:    spec.Substring.EndChar,
		}, nil
	case spec.Replace != nil:
		re, err := regexp.Compile(spec.Replace.Replace)
		if err != nil {
			return nil, fmt.Errorf("bad replace regex: %w", err)
		}

		return &replaceOp{source: trimVarRef(spec.Replace.Source), re: re, by: spec.Replace.By}, nil
	case spec.Convert != nil:
		// Validate the case name eagerly so bad configs fail at load time.
		if _, err := convertCase("probe", spec.Convert.ToCase, spec.Convert.SeparatedBy); err != nil {
			return nil, err
		}

		return &convertOp{
			source:      trimVarRef(spec.Convert.Source),
			toCase:      spec.Convert.ToCase,
			separatedBy: spec.Convert.SeparatedBy,
		}, nil
	case spec.Rewrite != nil:
		if c == nil {
			return nil, fmt.Errorf("rewrite transform requires a rule compiler")
		}

		compiled, err := c.Compile(spec.Rewrite.Rule)
		if err != nil {
			return nil, err
		}

		return &rewriteOp{
			source: trimVarRef(spec.Rewrite.Source),
			rule:   compiled,
			tpl:    NewTemplate(spec.Rewrite.Template),
			joinBy: spec.Rewrite.JoinBy,
		}, nil
	default:
		return nil, fmt.Errorf("no operation specified")
	}
}

// trimVarRef accepts "$A" or "A" for the source variable.
func trimVarRef(s string) string {
	return strings.TrimLeft(s, "$")
}

type substringOp struct {
	source string
	start  *int
	end    *int
}

func (o *substringOp) apply(env matcher.Env) (string, error) {
	text, ok := varText(env, o.source)
	if !ok {
		return "", fmt.Errorf("variable %s is unbound", o.source)
	}

	runes := []rune(text)
	start := resolveChar(o.start, 0, len(runes))
	end := resolveChar(o.end, len(runes), len(runes))

	if start > end {
		return "", nil
	}

	return string(runes[start:end]), nil
}

// resolveChar clamps a possibly negative character offset into [0, size].
func resolveChar(offset *int, fallback, size int) int {
	if offset == nil {
		return fallback
	}

	pos := *offset
	if pos < 0 {
		pos += size
	}

	if pos < 0 {
		return 0
	}

	if pos > size {
		return size
	}

	return pos
}

type replaceOp struct {
	source string
	re     *regexp.Regexp
	by     string
}

func (o *replaceOp) apply(env matcher.Env) (string, error) {
	text, ok := varText(env, o.source)
	if !ok {
		return "", fmt.Errorf("variable %s is unbound", o.source)
	}

	return o.re.ReplaceAllString(text, o.by), nil
}

type convertOp struct {
	source      string
	toCase      string
	separatedBy []string
}

func (o *convertOp) apply(env matcher.Env) (string, error) {
	text, ok := varText(env, o.source)
	if !ok {
		return "", fmt.Errorf("variable %s is unbound", o.source)
	}

	return convertCase(text, o.toCase, o.separatedBy)
}

type rewriteOp struct {
	source string
	rule   rule.Rule
	tpl    *Template
	joinBy string
}

func (o *rewriteOp) apply(env matcher.Env) (string, error) {
	nodes, err := sourceNodes(env, o.source)
	if err != nil {
		return "", err
	}

	pieces := make([]string, 0, len(nodes))

	for _, n := range nodes {
		piece, rewriteErr := o.rewriteNode(n)
		if rewriteErr != nil {
			return "", rewriteErr
		}

		pieces = append(pieces, piece)
	}

	return strings.Join(pieces, o.joinBy), nil
}

// rewriteNode applies the sub-rule over one node's subtree and splices
// the template over every top-level match. Matches nested inside an
// already rewritten match are skipped so the edits never overlap.
func (o *rewriteOp) rewriteNode(n tree.Node) (string, error) {
	base := n.StartByte()
	source := []byte(n.Text())

	var edits []Edit

	lastEnd := -1

	for m := range search.AllFrom(n, o.rule) {
		if m.Node().StartByte() < lastEnd {
			continue
		}

		e := o.tpl.RenderEdit(m.Node(), m.Env())
		e.Start -= base
		e.End -= base
		edits = append(edits, e)
		lastEnd = m.Node().EndByte()
	}

	out, err := Commit(source, edits)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// sourceNodes resolves the transform source variable to concrete nodes.
func sourceNodes(env matcher.Env, name string) ([]tree.Node, error) {
	if n, ok := env.Get(name); ok {
		return []tree.Node{n}, nil
	}

	if ns, ok := env.GetMulti(name); ok {
		return ns, nil
	}

	return nil, fmt.Errorf("variable %s is unbound", name)
}
