package matcher

import "fmt"

// Strictness controls which nodes participate in matching.
type Strictness int

const (
	// Cst matches every node of the concrete tree, anonymous tokens included.
	Cst Strictness = iota

	// Smart matches all pattern nodes but lets unmatched anonymous tokens
	// on the candidate side be skipped. This is the default.
	Smart

	// Ast matches named nodes only, on both sides.
	Ast

	// Relaxed is Ast with comments ignored as well.
	Relaxed

	// Signature is Relaxed with leaf text ignored: only the kind shape counts.
	Signature
)

var strictnessNames = map[Strictness]string{
	Cst:       "cst",
	Smart:     "smart",
	Ast:       "ast",
	Relaxed:   "relaxed",
	Signature: "signature",
}

// String returns the configuration name of the strictness level.
func (s Strictness) String() string {
	if name, ok := strictnessNames[s]; ok {
		return name
	}

	return fmt.Sprintf("strictness(%d)", int(s))
}

// ParseStrictness resolves a configuration name to a Strictness.
func ParseStrictness(name string) (Strictness, error) {
	for s, n := range strictnessNames {
		if n == name {
			return s, nil
		}
	}

	return Smart, fmt.Errorf("matcher: unknown strictness %q", name)
}
