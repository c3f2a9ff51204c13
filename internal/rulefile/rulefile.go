// Package rulefile reads YAML rule documents: decoding (including the
// multi-document form), JSON-schema validation, and compilation into
// executable rules.
package rulefile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity levels a rule document may declare.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
	SeverityHint    = "hint"
	SeverityOff     = "off"
)

// DefaultSeverity applies when a document declares none.
const DefaultSeverity = SeverityHint

// ErrNoRule marks a document without a rule condition.
var ErrNoRule = errors.New("rulefile: document has no rule")

// Doc is one decoded rule document.
type Doc struct {
	ID          string               `yaml:"id"`
	Language    string               `yaml:"language"`
	Severity    string               `yaml:"severity"`
	Message     string               `yaml:"message"`
	Note        string               `yaml:"note"`
	URL         string               `yaml:"url"`
	Rule        *RuleNode            `yaml:"rule"`
	Constraints map[string]*RuleNode `yaml:"constraints"`
	Transform   *TransformMap        `yaml:"transform"`
	Fix         string               `yaml:"fix"`
	Utils       map[string]*RuleNode `yaml:"utils"`

	// Path and Index locate the document for error reporting.
	Path  string `yaml:"-"`
	Index int    `yaml:"-"`
}

// RuleNode is the YAML form of a rule condition. It mirrors rule.Spec
// with YAML-flavored field shapes (scalar-or-object patterns, stopBy).
type RuleNode struct {
	Pattern  *PatternNode  `yaml:"pattern"`
	Kind     string        `yaml:"kind"`
	Regex    string        `yaml:"regex"`
	Range    *RangeNode    `yaml:"range"`
	NthChild *NthChildNode `yaml:"nthChild"`

	Inside   *RelationNode `yaml:"inside"`
	Has      *RelationNode `yaml:"has"`
	Precedes *RelationNode `yaml:"precedes"`
	Follows  *RelationNode `yaml:"follows"`

	All     []*RuleNode `yaml:"all"`
	Any     []*RuleNode `yaml:"any"`
	Not     *RuleNode   `yaml:"not"`
	Matches string      `yaml:"matches"`
}

// PatternNode accepts either a plain pattern string or the object form
// with a context snippet and selector.
type PatternNode struct {
	Source     string
	Context    string
	Selector   string
	Strictness string
}

func (p *PatternNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&p.Source)
	}

	var obj struct {
		Context    string `yaml:"context"`
		Selector   string `yaml:"selector"`
		Strictness string `yaml:"strictness"`
	}

	if err := value.Decode(&obj); err != nil {
		return err
	}

	p.Context = obj.Context
	p.Selector = obj.Selector
	p.Strictness = obj.Strictness

	return nil
}

// PositionNode is a zero-based line/column pair.
type PositionNode struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// RangeNode matches a node spanning exactly the given source range.
type RangeNode struct {
	Start PositionNode `yaml:"start"`
	End   PositionNode `yaml:"end"`
}

// NthChildNode accepts a bare position ("3", "2n+1", even/odd) or the
// object form with ofRule and reverse.
type NthChildNode struct {
	Position string
	OfRule   *RuleNode
	Reverse  bool
}

func (n *NthChildNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		n.Position = value.Value

		return nil
	}

	var obj struct {
		Position yaml.Node `yaml:"position"`
		OfRule   *RuleNode `yaml:"ofRule"`
		Reverse  bool      `yaml:"reverse"`
	}

	if err := value.Decode(&obj); err != nil {
		return err
	}

	n.Position = obj.Position.Value
	n.OfRule = obj.OfRule
	n.Reverse = obj.Reverse

	return nil
}

// RelationNode is a relational condition target: a rule plus the stopBy
// bound and an optional field restriction.
type RelationNode struct {
	RuleNode `yaml:",inline"`

	StopBy *StopByNode `yaml:"stopBy"`
	Field  string      `yaml:"field"`
}

// StopByNode accepts "neighbor", "end", or an inline rule object.
type StopByNode struct {
	Name string
	Rule *RuleNode
}

func (s *StopByNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		switch value.Value {
		case "neighbor", "end":
			s.Name = value.Value

			return nil
		default:
			return fmt.Errorf("rulefile: stopBy must be neighbor, end, or a rule, got %q", value.Value)
		}
	}

	s.Rule = &RuleNode{}

	return value.Decode(s.Rule)
}

// TransformMap preserves the declaration order of transforms, which
// matters because a transform may reference an earlier one's result.
type TransformMap struct {
	Names []string
	Nodes map[string]*TransformNode
}

func (m *TransformMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.New("rulefile: transform must be a mapping")
	}

	m.Nodes = make(map[string]*TransformNode, len(value.Content)/2)

	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value

		var node TransformNode
		if err := value.Content[i+1].Decode(&node); err != nil {
			return fmt.Errorf("rulefile: transform %s: %w", name, err)
		}

		m.Names = append(m.Names, name)
		m.Nodes[name] = &node
	}

	return nil
}

// TransformNode declares one transformation operation.
type TransformNode struct {
	Substring *SubstringNode `yaml:"substring"`
	Replace   *ReplaceNode   `yaml:"replace"`
	Convert   *ConvertNode   `yaml:"convert"`
	Rewrite   *RewriteNode   `yaml:"rewrite"`
}

// SubstringNode slices a variable's text by character offsets.
type SubstringNode struct {
	Source    string `yaml:"source"`
	StartChar *int   `yaml:"startChar"`
	EndChar   *int   `yaml:"endChar"`
}

// ReplaceNode rewrites regex matches in a variable's text.
type ReplaceNode struct {
	Source  string `yaml:"source"`
	Replace string `yaml:"replace"`
	By      string `yaml:"by"`
}

// ConvertNode re-cases a variable's text.
type ConvertNode struct {
	Source      string   `yaml:"source"`
	ToCase      string   `yaml:"toCase"`
	SeparatedBy []string `yaml:"separatedBy"`
}

// RewriteNode applies a sub-rule and template inside a variable's nodes.
type RewriteNode struct {
	Source   string    `yaml:"source"`
	Rule     *RuleNode `yaml:"rule"`
	Template string    `yaml:"template"`
	JoinBy   string    `yaml:"joinBy"`
}

// LoadFile reads one YAML file, which may hold several documents
// separated by "---". Every document is schema-validated before decode.
func LoadFile(path string) ([]*Doc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rulefile: %w", err)
	}
	defer f.Close()

	return Load(f, path)
}

// Load reads rule documents from a reader. The name labels errors.
func Load(r io.Reader, name string) ([]*Doc, error) {
	dec := yaml.NewDecoder(r)

	var docs []*Doc

	for index := 0; ; index++ {
		var node yaml.Node

		decodeErr := dec.Decode(&node)
		if errors.Is(decodeErr, io.EOF) {
			break
		}

		if decodeErr != nil {
			return nil, fmt.Errorf("rulefile: %s document %d: %w", name, index, decodeErr)
		}

		doc, docErr := decodeDoc(&node)
		if docErr != nil {
			return nil, fmt.Errorf("rulefile: %s document %d: %w", name, index, docErr)
		}

		doc.Path = name
		doc.Index = index
		docs = append(docs, doc)
	}

	return docs, nil
}

// LoadDir walks a directory tree and loads every .yml/.yaml file,
// sorted by path so rule order is stable across platforms.
func LoadDir(root string) ([]*Doc, error) {
	var docs []*Doc

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}

		fileDocs, loadErr := LoadFile(path)
		if loadErr != nil {
			return loadErr
		}

		docs = append(docs, fileDocs...)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("rulefile: %w", walkErr)
	}

	return docs, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))

	return ext == ".yml" || ext == ".yaml"
}

// decodeDoc validates a raw document against the schema, then decodes
// it and applies defaults.
func decodeDoc(node *yaml.Node) (*Doc, error) {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}

	if err := validateRaw(raw); err != nil {
		return nil, err
	}

	var doc Doc
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}

	if doc.Severity == "" {
		doc.Severity = DefaultSeverity
	}

	if doc.Rule == nil {
		return nil, ErrNoRule
	}

	return &doc, nil
}
