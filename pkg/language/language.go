// Package language registers the tree-sitter grammars treegrep can parse
// and the per-language knowledge the matcher needs: file extensions,
// meta-variable lexing rules, kind aliases and trivia classification.
package language

import (
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// MetaVarChar is the character that introduces a meta-variable in
// user-facing pattern sources, for every language.
const MetaVarChar = '$'

// expandoChar substitutes MetaVarChar before parsing pattern sources in
// languages whose grammars reject '$' inside identifiers. The rune is a
// valid identifier character in all registered grammars.
const expandoChar = 'µ'

// Language describes one registered grammar. The tree-sitter language
// object is initialized lazily on first use; a Language value is safe for
// concurrent use afterwards.
type Language struct {
	name       string
	enryName   string
	extensions []string
	expando    bool
	aliases    map[string][]string
	getLang    func() unsafe.Pointer

	once sync.Once
	lang *sitter.Language
}

// Name returns the registry name of the language (e.g. "javascript").
func (l *Language) Name() string { return l.name }

// Extensions returns the file extensions (with leading dot) the language claims.
func (l *Language) Extensions() []string { return l.extensions }

// Sitter returns the tree-sitter language object, initializing it on first call.
func (l *Language) Sitter() *sitter.Language {
	l.once.Do(func() {
		l.lang = sitter.NewLanguage(l.getLang())
	})

	return l.lang
}

// ExpandoChar returns the rune that stands in for MetaVarChar in parsed
// pattern sources. For languages where '$' is a legal identifier character
// it is MetaVarChar itself.
func (l *Language) ExpandoChar() rune {
	if l.expando {
		return expandoChar
	}

	return MetaVarChar
}

// PreProcessPattern rewrites a pattern source so the grammar can parse it:
// every MetaVarChar becomes the language's expando rune. Languages whose
// grammars accept '$' return the source unchanged.
func (l *Language) PreProcessPattern(src string) string {
	if !l.expando {
		return src
	}

	return strings.ReplaceAll(src, string(MetaVarChar), string(expandoChar))
}

// ExpandKindAlias resolves a kind name that may be an alias into the
// concrete grammar kinds it covers. Non-alias kinds map to themselves.
func (l *Language) ExpandKindAlias(kind string) []string {
	if concrete, ok := l.aliases[kind]; ok {
		return concrete
	}

	return []string{kind}
}

// IsCommentKind reports whether a node kind is a comment. Comments are the
// trivia the relaxed and signature strictness levels skip.
func (l *Language) IsCommentKind(kind string) bool {
	return strings.Contains(kind, "comment")
}
