package rulefile

import (
	"fmt"

	"github.com/Sumatoshi-tech/treegrep/pkg/edit"
	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/patterncache"
	"github.com/Sumatoshi-tech/treegrep/pkg/rule"
)

// CompiledRule is one rule document compiled against its language and
// ready to run over trees.
type CompiledRule struct {
	ID       string
	Severity string
	Message  string
	Note     string

	Language   *language.Language
	Rule       rule.Rule
	Transforms []edit.Transform
	Fix        *edit.Template
}

// HasFix reports whether the rule carries a rewrite template.
func (r *CompiledRule) HasFix() bool { return r.Fix != nil }

// Compile resolves the document's language and compiles its rule,
// constraints, transforms, and fix template. The pattern cache is
// shared across documents; it may be nil.
func Compile(doc *Doc, cache *patterncache.Cache) (*CompiledRule, error) {
	lang, ok := language.Get(doc.Language)
	if !ok {
		return nil, fmt.Errorf("rulefile: %s: unknown language %q", doc.ID, doc.Language)
	}

	var opts []rule.CompilerOption
	if cache != nil {
		opts = append(opts, rule.WithPatternCache(cache))
	}

	compiler := rule.NewCompiler(lang, opts...)

	if len(doc.Utils) > 0 {
		utils := make(map[string]*rule.Spec, len(doc.Utils))
		for name, node := range doc.Utils {
			utils[name] = node.Spec()
		}

		if err := compiler.CompileUtils(utils); err != nil {
			return nil, fmt.Errorf("rulefile: %s: %w", doc.ID, err)
		}
	}

	compiled, err := compiler.Compile(doc.Rule.Spec())
	if err != nil {
		return nil, fmt.Errorf("rulefile: %s: %w", doc.ID, err)
	}

	if len(doc.Constraints) > 0 {
		constraints := make(map[string]rule.Rule, len(doc.Constraints))

		for name, node := range doc.Constraints {
			c, constraintErr := compiler.Compile(node.Spec())
			if constraintErr != nil {
				return nil, fmt.Errorf("rulefile: %s: constraint %s: %w", doc.ID, name, constraintErr)
			}

			constraints[name] = c
		}

		compiled = rule.WithConstraints(compiled, constraints)
	}

	out := &CompiledRule{
		ID:       doc.ID,
		Severity: doc.Severity,
		Message:  doc.Message,
		Note:     doc.Note,
		Language: lang,
		Rule:     compiled,
	}

	if doc.Transform != nil {
		transforms, transformErr := edit.CompileTransforms(compiler, doc.Transform.Specs())
		if transformErr != nil {
			return nil, fmt.Errorf("rulefile: %s: %w", doc.ID, transformErr)
		}

		out.Transforms = transforms
	}

	if doc.Fix != "" {
		out.Fix = edit.NewTemplate(doc.Fix)
	}

	return out, nil
}

// CompileAll compiles every document, skipping those with severity off.
func CompileAll(docs []*Doc, cache *patterncache.Cache) ([]*CompiledRule, error) {
	rules := make([]*CompiledRule, 0, len(docs))

	for _, doc := range docs {
		if doc.Severity == SeverityOff {
			continue
		}

		compiled, err := Compile(doc, cache)
		if err != nil {
			return nil, err
		}

		rules = append(rules, compiled)
	}

	return rules, nil
}

// Spec converts the YAML rule form into the rule package's spec.
func (r *RuleNode) Spec() *rule.Spec {
	if r == nil {
		return nil
	}

	s := &rule.Spec{
		Kind:    r.Kind,
		Regex:   r.Regex,
		Matches: r.Matches,
		Not:     r.Not.Spec(),
	}

	if r.Pattern != nil {
		s.Pattern = &rule.PatternSpec{
			Source:     r.Pattern.Source,
			Context:    r.Pattern.Context,
			Selector:   r.Pattern.Selector,
			Strictness: r.Pattern.Strictness,
		}
	}

	if r.Range != nil {
		s.Range = &rule.RangeSpec{
			Start: rule.Position{Line: r.Range.Start.Line, Column: r.Range.Start.Column},
			End:   rule.Position{Line: r.Range.End.Line, Column: r.Range.End.Column},
		}
	}

	if r.NthChild != nil {
		s.NthChild = &rule.NthChildSpec{
			Position: r.NthChild.Position,
			OfRule:   r.NthChild.OfRule.Spec(),
			Reverse:  r.NthChild.Reverse,
		}
	}

	s.Inside = r.Inside.spec()
	s.Has = r.Has.spec()
	s.Precedes = r.Precedes.spec()
	s.Follows = r.Follows.spec()

	for _, sub := range r.All {
		s.All = append(s.All, sub.Spec())
	}

	for _, sub := range r.Any {
		s.Any = append(s.Any, sub.Spec())
	}

	return s
}

func (r *RelationNode) spec() *rule.RelationSpec {
	if r == nil {
		return nil
	}

	out := &rule.RelationSpec{
		Rule:  r.RuleNode.Spec(),
		Field: r.Field,
	}

	switch {
	case r.StopBy == nil:
		out.StopBy = rule.StopBy{Kind: rule.StopNeighbor}
	case r.StopBy.Rule != nil:
		out.StopBy = rule.StopBy{Kind: rule.StopRule, Rule: r.StopBy.Rule.Spec()}
	case r.StopBy.Name == "end":
		out.StopBy = rule.StopBy{Kind: rule.StopEnd}
	default:
		out.StopBy = rule.StopBy{Kind: rule.StopNeighbor}
	}

	return out
}

// Specs converts the ordered transform map into edit transform specs,
// preserving declaration order.
func (m *TransformMap) Specs() []edit.TransformSpec {
	specs := make([]edit.TransformSpec, 0, len(m.Names))

	for _, name := range m.Names {
		node := m.Nodes[name]
		spec := edit.TransformSpec{Name: name}

		switch {
		case node.Substring != nil:
			spec.Substring = &edit.SubstringSpec{
				Source:    node.Substring.Source,
				StartChar: node.Substring.StartChar,
				EndChar:   node.Substring.EndChar,
			}
		case node.Replace != nil:
			spec.Replace = &edit.ReplaceSpec{
				Source:  node.Replace.Source,
				Replace: node.Replace.Replace,
				By:      node.Replace.By,
			}
		case node.Convert != nil:
			spec.Convert = &edit.ConvertSpec{
				Source:      node.Convert.Source,
				ToCase:      node.Convert.ToCase,
				SeparatedBy: node.Convert.SeparatedBy,
			}
		case node.Rewrite != nil:
			spec.Rewrite = &edit.RewriteSpec{
				Source:   node.Rewrite.Source,
				Rule:     node.Rewrite.Rule.Spec(),
				Template: node.Rewrite.Template,
				JoinBy:   node.Rewrite.JoinBy,
			}
		}

		specs = append(specs, spec)
	}

	return specs
}
