package edit

import (
	"fmt"
	"strings"
	"unicode"
)

// Case names accepted by the convert transformation.
const (
	CaseLower      = "lowerCase"
	CaseUpper      = "upperCase"
	CaseCapitalize = "capitalize"
	CaseCamel      = "camelCase"
	CaseSnake      = "snakeCase"
	CaseKebab      = "kebabCase"
	CasePascal     = "pascalCase"
)

// Separator names accepted by convert's separatedBy list.
const (
	SepDash       = "dash"
	SepDot        = "dot"
	SepSlash      = "slash"
	SepSpace      = "space"
	SepUnderscore = "underscore"
	SepCaseChange = "caseChange"
)

var allSeparators = []string{SepDash, SepDot, SepSlash, SepSpace, SepUnderscore, SepCaseChange}

// convertCase re-cases text. Word boundaries come from the separator
// list; an empty list means every separator including case changes.
func convertCase(text, toCase string, separatedBy []string) (string, error) {
	switch toCase {
	case CaseLower:
		return strings.ToLower(text), nil
	case CaseUpper:
		return strings.ToUpper(text), nil
	case CaseCapitalize:
		return capitalize(text), nil
	}

	if len(separatedBy) == 0 {
		separatedBy = allSeparators
	}

	words, err := splitWords(text, separatedBy)
	if err != nil {
		return "", err
	}

	switch toCase {
	case CaseCamel:
		for i, w := range words {
			if i == 0 {
				words[i] = strings.ToLower(w)
			} else {
				words[i] = capitalize(strings.ToLower(w))
			}
		}

		return strings.Join(words, ""), nil
	case CasePascal:
		for i, w := range words {
			words[i] = capitalize(strings.ToLower(w))
		}

		return strings.Join(words, ""), nil
	case CaseSnake:
		return strings.ToLower(strings.Join(words, "_")), nil
	case CaseKebab:
		return strings.ToLower(strings.Join(words, "-")), nil
	default:
		return "", fmt.Errorf("edit: unknown case %q", toCase)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}

// splitWords cuts text into words at the requested separators. Separator
// characters are dropped; a case change keeps both sides intact.
func splitWords(text string, separatedBy []string) ([]string, error) {
	seps := make(map[rune]bool)
	caseChange := false

	for _, name := range separatedBy {
		switch name {
		case SepDash:
			seps['-'] = true
		case SepDot:
			seps['.'] = true
		case SepSlash:
			seps['/'] = true
		case SepSpace:
			seps[' '] = true
		case SepUnderscore:
			seps['_'] = true
		case SepCaseChange:
			caseChange = true
		default:
			return nil, fmt.Errorf("edit: unknown separator %q", name)
		}
	}

	var (
		words []string
		cur   []rune
		prev  rune
	)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}

	for _, r := range text {
		if seps[r] {
			flush()
			prev = r

			continue
		}

		if caseChange && unicode.IsUpper(r) && unicode.IsLower(prev) {
			flush()
		}

		cur = append(cur, r)
		prev = r
	}

	flush()

	return words, nil
}
