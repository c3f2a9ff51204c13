// Package tree builds immutable, arena-allocated syntax trees from
// tree-sitter parses. Every node of a parse is copied into one flat slice
// in pre-order; the cgo tree is released before Parse returns, so a Tree
// holds no foreign memory and is safe to share between goroutines.
package tree

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/safeconv"
)

var errNoRootNode = errors.New("tree: parse produced no root node")

// Point is a zero-based line/column position.
type Point struct {
	Row    uint32
	Column uint32
}

// nodeData is the arena record for one syntax node. Nodes are stored in
// pre-order, so the descendants of node i are exactly the records
// (i, i+subtree].
type nodeData struct {
	kind       string
	field      string
	startByte  uint32
	endByte    uint32
	startPoint Point
	endPoint   Point
	parent     int32
	children   []int32
	subtree    int32
	named      bool
	errNode    bool
	missing    bool
}

// Tree is an immutable parsed syntax tree together with its source bytes.
type Tree struct {
	lang   *language.Language
	path   string
	source []byte
	nodes  []nodeData
}

// Language returns the language the tree was parsed with.
func (t *Tree) Language() *language.Language { return t.lang }

// Path returns the file path the tree was parsed from, or "<input>" for
// in-memory sources.
func (t *Tree) Path() string { return t.path }

// Source returns the raw source bytes. Callers must not mutate them.
func (t *Tree) Source() []byte { return t.source }

// Root returns the root node.
func (t *Tree) Root() Node { return Node{tree: t, idx: 0} }

// Len returns the total number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// parserPools keeps one pool of configured parsers per language.
// tree-sitter parsers are reusable but not concurrency-safe, which is
// exactly the sync.Pool contract.
var parserPools sync.Map

func acquireParser(lang *language.Language) *sitter.Parser {
	poolAny, ok := parserPools.Load(lang.Name())
	if !ok {
		poolAny, _ = parserPools.LoadOrStore(lang.Name(), &sync.Pool{})
	}

	pool := poolAny.(*sync.Pool)

	if p, ok := pool.Get().(*sitter.Parser); ok {
		return p
	}

	p := sitter.NewParser()
	p.SetLanguage(lang.Sitter())

	return p
}

func releaseParser(lang *language.Language, p *sitter.Parser) {
	poolAny, _ := parserPools.Load(lang.Name())
	poolAny.(*sync.Pool).Put(p)
}

// Parse parses source as lang and returns the arena tree. The returned
// tree retains source; callers must not mutate the slice afterwards.
func Parse(ctx context.Context, lang *language.Language, path string, source []byte) (*Tree, error) {
	parser := acquireParser(lang)
	defer releaseParser(lang, parser)

	tsTree, parseErr := parser.ParseString(ctx, nil, source)
	if parseErr != nil {
		return nil, fmt.Errorf("tree: parse %s: %w", path, parseErr)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	t := &Tree{
		lang:   lang,
		path:   path,
		source: source,
		nodes:  make([]nodeData, 0, 256),
	}

	t.build(root, -1, "")

	return t, nil
}

// ParseString parses an in-memory source snippet.
func ParseString(ctx context.Context, lang *language.Language, source string) (*Tree, error) {
	return Parse(ctx, lang, "<input>", []byte(source))
}

// build copies one tree-sitter node and its subtree into the arena,
// returning the arena index of the copied node.
func (t *Tree) build(n sitter.Node, parent int32, field string) int32 {
	idx := safeconv.MustIntToInt32(len(t.nodes))

	t.nodes = append(t.nodes, nodeData{
		kind:       n.Type(),
		field:      field,
		startByte:  safeconv.MustIntToUint32(safeconv.MustUintToInt(n.StartByte())),
		endByte:    safeconv.MustIntToUint32(safeconv.MustUintToInt(n.EndByte())),
		startPoint: toPoint(n.StartPoint()),
		endPoint:   toPoint(n.EndPoint()),
		parent:     parent,
		named:      n.IsNamed(),
		errNode:    n.IsError(),
		missing:    n.IsMissing(),
	})

	count := n.ChildCount()
	children := make([]int32, 0, count)

	for i := range count {
		child := n.Child(i)
		if child.IsNull() {
			continue
		}

		children = append(children, t.build(child, idx, n.FieldNameForChild(int(i))))
	}

	t.nodes[idx].children = children
	t.nodes[idx].subtree = safeconv.MustIntToInt32(len(t.nodes)) - idx - 1

	return idx
}

func toPoint(p sitter.Point) Point {
	return Point{
		Row:    safeconv.MustIntToUint32(safeconv.MustUintToInt(uint(p.Row))),
		Column: safeconv.MustIntToUint32(safeconv.MustUintToInt(uint(p.Column))),
	}
}
