package rule

import (
	"fmt"
	"regexp"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/matcher"
	"github.com/Sumatoshi-tech/treegrep/pkg/patterncache"
)

// Compiler turns rule specs into matchers for one language.
type Compiler struct {
	lang     *language.Language
	registry *Registry
	cache    *patterncache.Cache
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithRegistry supplies the utility-rule registry consulted by "matches"
// references.
func WithRegistry(r *Registry) CompilerOption {
	return func(c *Compiler) { c.registry = r }
}

// WithPatternCache reuses compiled patterns across rules.
func WithPatternCache(cache *patterncache.Cache) CompilerOption {
	return func(c *Compiler) { c.cache = cache }
}

// NewCompiler creates a rule compiler for the given language.
func NewCompiler(lang *language.Language, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		lang:     lang,
		registry: NewRegistry(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Registry returns the utility-rule registry the compiler resolves
// "matches" references against.
func (c *Compiler) Registry() *Registry { return c.registry }

// Compile builds the matcher for one spec. A spec with several populated
// fields compiles to the conjunction of all of them.
func (c *Compiler) Compile(spec *Spec) (Rule, error) {
	if spec == nil {
		return nil, &CompileError{Kind: ErrEmptyRule, Detail: "nil rule spec"}
	}

	var parts []Rule

	appendRule := func(r Rule, err error) error {
		if err != nil {
			return err
		}

		parts = append(parts, r)

		return nil
	}

	if spec.Pattern != nil {
		if err := appendRule(c.compilePattern(spec.Pattern)); err != nil {
			return nil, err
		}
	}

	if spec.Kind != "" {
		parts = append(parts, c.compileKind(spec.Kind))
	}

	if spec.Regex != "" {
		if err := appendRule(c.compileRegex(spec.Regex)); err != nil {
			return nil, err
		}
	}

	if spec.Range != nil {
		parts = append(parts, &rangeRule{span: *spec.Range})
	}

	if spec.NthChild != nil {
		if err := appendRule(c.compileNthChild(spec.NthChild)); err != nil {
			return nil, err
		}
	}

	relations := []struct {
		spec *RelationSpec
		make func(Rule, StopBy, string) (Rule, error)
	}{
		{spec.Inside, c.makeInside},
		{spec.Has, c.makeHas},
		{spec.Precedes, c.makePrecedes},
		{spec.Follows, c.makeFollows},
	}

	for _, rel := range relations {
		if rel.spec == nil {
			continue
		}

		inner, err := c.Compile(rel.spec.Rule)
		if err != nil {
			return nil, err
		}

		r, err := rel.make(inner, rel.spec.StopBy, rel.spec.Field)
		if err != nil {
			return nil, err
		}

		parts = append(parts, r)
	}

	if len(spec.All) > 0 {
		if err := appendRule(c.compileAll(spec.All)); err != nil {
			return nil, err
		}
	}

	if len(spec.Any) > 0 {
		if err := appendRule(c.compileAny(spec.Any)); err != nil {
			return nil, err
		}
	}

	if spec.Not != nil {
		inner, err := c.Compile(spec.Not)
		if err != nil {
			return nil, err
		}

		parts = append(parts, &notRule{inner: inner})
	}

	if spec.Matches != "" {
		parts = append(parts, &refRule{name: spec.Matches, registry: c.registry})
	}

	switch len(parts) {
	case 0:
		return nil, &CompileError{Kind: ErrEmptyRule, Detail: "rule spec has no conditions"}
	case 1:
		return parts[0], nil
	default:
		return &allRule{parts: parts}, nil
	}
}

// CompilePattern compiles a bare pattern source as a rule, the shorthand
// used for inline command-line patterns.
func (c *Compiler) CompilePattern(source string) (Rule, error) {
	return c.compilePattern(&PatternSpec{Source: source})
}

func (c *Compiler) compilePattern(spec *PatternSpec) (Rule, error) {
	source := spec.Source
	if spec.Context != "" {
		source = spec.Context
	}

	strictness := matcher.Smart

	if spec.Strictness != "" {
		parsed, err := matcher.ParseStrictness(spec.Strictness)
		if err != nil {
			return nil, &CompileError{Kind: ErrBadStrictness, Detail: err.Error()}
		}

		strictness = parsed
	}

	key := patterncache.Key{
		Language:   c.lang.Name(),
		Source:     source,
		Selector:   spec.Selector,
		Strictness: strictness,
	}

	if c.cache != nil {
		if p, ok := c.cache.Get(key); ok {
			return &patternRule{pattern: p}, nil
		}
	}

	opts := []matcher.Option{matcher.WithStrictness(strictness)}
	if spec.Selector != "" {
		opts = append(opts, matcher.WithSelector(spec.Selector))
	}

	p, err := matcher.Compile(c.lang, source, opts...)
	if err != nil {
		return nil, &CompileError{Kind: ErrBadPattern, Detail: err.Error()}
	}

	if c.cache != nil {
		c.cache.Put(key, p)
	}

	return &patternRule{pattern: p}, nil
}

func (c *Compiler) compileKind(kind string) Rule {
	kinds := make(map[string]struct{})

	for _, concrete := range c.lang.ExpandKindAlias(kind) {
		kinds[concrete] = struct{}{}
	}

	return &kindRule{kinds: kinds}
}

func (c *Compiler) compileRegex(expr string) (Rule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &CompileError{Kind: ErrBadRegex, Detail: fmt.Sprintf("%q: %v", expr, err)}
	}

	return &regexRule{re: re}, nil
}

func (c *Compiler) compileAll(specs []*Spec) (Rule, error) {
	parts := make([]Rule, 0, len(specs))

	for _, s := range specs {
		r, err := c.Compile(s)
		if err != nil {
			return nil, err
		}

		parts = append(parts, r)
	}

	return &allRule{parts: parts}, nil
}

func (c *Compiler) compileAny(specs []*Spec) (Rule, error) {
	parts := make([]Rule, 0, len(specs))

	for _, s := range specs {
		r, err := c.Compile(s)
		if err != nil {
			return nil, err
		}

		parts = append(parts, r)
	}

	return &anyRule{parts: parts}, nil
}

func (c *Compiler) compileStop(stopBy StopBy) (Rule, error) {
	if stopBy.Kind != StopRule {
		return nil, nil
	}

	return c.Compile(stopBy.Rule)
}

func (c *Compiler) makeInside(inner Rule, stopBy StopBy, field string) (Rule, error) {
	stop, err := c.compileStop(stopBy)
	if err != nil {
		return nil, err
	}

	return &insideRule{inner: inner, stopKind: stopBy.Kind, stop: stop, field: field}, nil
}

func (c *Compiler) makeHas(inner Rule, stopBy StopBy, field string) (Rule, error) {
	stop, err := c.compileStop(stopBy)
	if err != nil {
		return nil, err
	}

	return &hasRule{inner: inner, stopKind: stopBy.Kind, stop: stop, field: field}, nil
}

func (c *Compiler) makePrecedes(inner Rule, stopBy StopBy, _ string) (Rule, error) {
	stop, err := c.compileStop(stopBy)
	if err != nil {
		return nil, err
	}

	return &siblingRule{inner: inner, stopKind: stopBy.Kind, stop: stop, forward: true}, nil
}

func (c *Compiler) makeFollows(inner Rule, stopBy StopBy, _ string) (Rule, error) {
	stop, err := c.compileStop(stopBy)
	if err != nil {
		return nil, err
	}

	return &siblingRule{inner: inner, stopKind: stopBy.Kind, stop: stop, forward: false}, nil
}
