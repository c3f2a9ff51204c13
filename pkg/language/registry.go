package language

import (
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"

	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/json"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/rust"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
)

// registry holds every supported language keyed by registry name.
// Grammar initialization stays lazy (see Language.Sitter), so listing a
// language here costs nothing until it is parsed with.
var registry = map[string]*Language{
	"go": {
		name:       "go",
		enryName:   "go",
		extensions: []string{".go"},
		expando:    true,
		getLang:    golang.GetLanguage,
		aliases: map[string][]string{
			"function": {"function_declaration", "method_declaration", "func_literal"},
			"loop":     {"for_statement"},
		},
	},
	"javascript": {
		name:       "javascript",
		enryName:   "javascript",
		extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
		getLang:    javascript.GetLanguage,
		aliases: map[string][]string{
			"function": {
				"function_declaration", "function_expression", "generator_function",
				"generator_function_declaration", "arrow_function", "method_definition",
			},
			"loop": {"for_statement", "for_in_statement", "while_statement", "do_statement"},
		},
	},
	"typescript": {
		name:       "typescript",
		enryName:   "typescript",
		extensions: []string{".ts", ".mts", ".cts"},
		getLang:    typescript.GetLanguage,
	},
	"tsx": {
		name:       "tsx",
		enryName:   "tsx",
		extensions: []string{".tsx"},
		getLang:    tsx.GetLanguage,
	},
	"python": {
		name:       "python",
		enryName:   "python",
		extensions: []string{".py", ".pyi"},
		expando:    true,
		getLang:    python.GetLanguage,
		aliases: map[string][]string{
			"function": {"function_definition", "lambda"},
			"loop":     {"for_statement", "while_statement"},
		},
	},
	"java": {
		name:       "java",
		enryName:   "java",
		extensions: []string{".java"},
		expando:    true,
		getLang:    java.GetLanguage,
	},
	"rust": {
		name:       "rust",
		enryName:   "rust",
		extensions: []string{".rs"},
		expando:    true,
		getLang:    rust.GetLanguage,
	},
	"json": {
		name:       "json",
		enryName:   "json",
		extensions: []string{".json"},
		getLang:    json.GetLanguage,
	},
}

// bloomSize is the bit-array length for the extension bloom filter.
// With ~20 registered extensions and 2 hash functions the false-positive
// rate is negligible; the filter short-circuits lookups for the vast
// majority of extensions seen while walking a real tree.
const bloomSize = 512

var (
	extensions = map[string]*Language{}
	extBloom   [bloomSize / 64]uint64
)

func init() {
	for _, lang := range registry {
		for _, ext := range lang.extensions {
			lower := strings.ToLower(ext)
			extensions[lower] = lang
			bloomAdd(lower)
		}
	}
}

// Get returns the language registered under name (case-insensitive).
func Get(name string) (*Language, bool) {
	lang, ok := registry[strings.ToLower(name)]

	return lang, ok
}

// Supported returns the registry names of all supported languages, unsorted.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}

// ByExtension returns the language claiming the given extension
// (with leading dot). A bloom filter provides a fast negative check:
// if the extension is definitely not registered, the map lookup is
// skipped entirely.
func ByExtension(ext string) (*Language, bool) {
	lower := strings.ToLower(ext)
	if !bloomMayContain(lower) {
		return nil, false
	}

	lang, ok := extensions[lower]

	return lang, ok
}

// Detect resolves the language of a file. The extension map is consulted
// first; for extensionless or ambiguous files it falls back to content
// based detection via enry.
func Detect(path string, content []byte) (*Language, bool) {
	if lang, ok := ByExtension(filepath.Ext(path)); ok {
		return lang, true
	}

	name := enry.GetLanguage(filepath.Base(path), content)
	if name == "" {
		return nil, false
	}

	lower := strings.ToLower(name)

	for _, lang := range registry {
		if lang.enryName == lower {
			return lang, true
		}
	}

	return nil, false
}

func bloomAdd(ext string) {
	h1, h2 := bloomHashes(ext)
	extBloom[h1/64] |= 1 << (h1 % 64)
	extBloom[h2/64] |= 1 << (h2 % 64)
}

func bloomMayContain(ext string) bool {
	h1, h2 := bloomHashes(ext)

	return extBloom[h1/64]&(1<<(h1%64)) != 0 &&
		extBloom[h2/64]&(1<<(h2%64)) != 0
}

// bloomHashes returns two independent bit positions for a bloom filter.
// Uses FNV-1a variant with two different seeds for the two hash functions.
func bloomHashes(s string) (uint, uint) {
	const (
		fnvBasis1 uint = 14695981039346656037
		fnvBasis2 uint = 17316225907498340287
		fnvPrime  uint = 1099511628211
	)

	h1, h2 := fnvBasis1, fnvBasis2

	for i := range len(s) {
		h1 ^= uint(s[i])
		h1 *= fnvPrime
		h2 ^= uint(s[i])
		h2 *= fnvPrime
	}

	return h1 % bloomSize, h2 % bloomSize
}
