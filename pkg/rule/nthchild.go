package rule

import (
	"fmt"
	"strconv"
	"strings"
)

// compileNthChild parses the spec's An+B position formula and compiles
// the optional ofRule filter.
func (c *Compiler) compileNthChild(spec *NthChildSpec) (Rule, error) {
	step, offset, err := parseAnPlusB(spec.Position)
	if err != nil {
		return nil, &CompileError{Kind: ErrBadNthChild, Detail: err.Error()}
	}

	r := &nthChildRule{step: step, offset: offset, reverse: spec.Reverse}

	if spec.OfRule != nil {
		inner, err := c.Compile(spec.OfRule)
		if err != nil {
			return nil, err
		}

		r.ofRule = inner
	}

	return r, nil
}

// parseAnPlusB parses a CSS :nth-child position: a plain integer, the
// keywords "even"/"odd", or an An+B formula such as "2n+1", "n", "-n+3".
func parseAnPlusB(s string) (step, offset int, err error) {
	compact := strings.ToLower(strings.ReplaceAll(s, " ", ""))

	switch compact {
	case "":
		return 0, 0, fmt.Errorf("empty nthChild position")
	case "even":
		return 2, 0, nil
	case "odd":
		return 2, 1, nil
	}

	nIdx := strings.IndexByte(compact, 'n')
	if nIdx < 0 {
		offset, err = strconv.Atoi(compact)
		if err != nil {
			return 0, 0, fmt.Errorf("bad nthChild position %q", s)
		}

		return 0, offset, nil
	}

	stepPart := compact[:nIdx]

	switch stepPart {
	case "", "+":
		step = 1
	case "-":
		step = -1
	default:
		step, err = strconv.Atoi(stepPart)
		if err != nil {
			return 0, 0, fmt.Errorf("bad nthChild step in %q", s)
		}
	}

	offsetPart := compact[nIdx+1:]
	if offsetPart == "" {
		return step, 0, nil
	}

	if offsetPart[0] != '+' && offsetPart[0] != '-' {
		return 0, 0, fmt.Errorf("bad nthChild offset in %q", s)
	}

	offset, err = strconv.Atoi(offsetPart)
	if err != nil {
		return 0, 0, fmt.Errorf("bad nthChild offset in %q", s)
	}

	return step, offset, nil
}
