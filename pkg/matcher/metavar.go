// Package matcher implements structural pattern matching over syntax
// trees: meta-variable extraction, the immutable binding environment,
// pattern compilation and the node match algorithm.
package matcher

import "strings"

// MetaVar is one meta-variable occurrence inside a compiled pattern.
//
// The user-facing grammar is:
//
//	$NAME    single named node
//	$_       single node, not captured
//	$_NAME   single node, not captured
//	$$$      any number of nodes, not captured
//	$$$NAME  any number of nodes, captured as a list
//	$$$_NAME any number of nodes, not captured
//
// NAME starts with an uppercase letter followed by uppercase letters,
// digits or underscores.
type MetaVar struct {
	Name    string
	Multi   bool
	Capture bool
}

// ExtractMetaVar parses a token text as a meta-variable. metaChar is the
// rune standing in for '$' in the parsed pattern source (the language's
// expando rune). ok is false when the text is not a meta-variable at all;
// such text stays an ordinary literal.
func ExtractMetaVar(text string, metaChar rune) (MetaVar, bool) {
	meta := string(metaChar)
	ellipsis := strings.Repeat(meta, 3)

	if text == ellipsis {
		return MetaVar{Multi: true}, true
	}

	if trimmed, found := strings.CutPrefix(text, ellipsis); found {
		name, capture, ok := parseVarName(trimmed)
		if !ok {
			return MetaVar{}, false
		}

		return MetaVar{Name: name, Multi: true, Capture: capture}, true
	}

	trimmed, found := strings.CutPrefix(text, meta)
	if !found || strings.HasPrefix(trimmed, meta) {
		return MetaVar{}, false
	}

	if trimmed == "_" {
		return MetaVar{}, true
	}

	name, capture, ok := parseVarName(trimmed)
	if !ok {
		return MetaVar{}, false
	}

	return MetaVar{Name: name, Capture: capture}, true
}

// parseVarName validates a meta-variable name and reports whether the
// variable captures. A leading underscore suppresses capture; the name is
// still returned so diagnostics can mention it.
func parseVarName(s string) (name string, capture bool, ok bool) {
	if s == "" {
		return "", false, false
	}

	body := s
	capture = true

	if rest, found := strings.CutPrefix(s, "_"); found {
		body = rest
		capture = false
	}

	if body == "" || !isUpper(body[0]) {
		return "", false, false
	}

	for i := range len(body) {
		c := body[i]
		if !isUpper(c) && !isDigit(c) && c != '_' {
			return "", false, false
		}
	}

	return body, capture, true
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
