package chem

import (
	"fmt"
	"strings"
	"unicode"
)

// Formula is a parsed chemical formula: element coefficients, electric
// charge, and molar mass.
type Formula struct {
	Str       string
	Elements  map[string]float64
	Charge    float64
	MolarMass float64 // kg/mol
}

// aggregate suffixes stripped before parsing, e.g. CO2(g) or Calcite(s).
var aggregateSuffixes = []string{"(aq)", "(g)", "(s)", "(l)"}

// ParseFormula parses a chemical formula string such as H2O, Na+, Ca+2,
// CO3-2, Fe(OH)3, CaX2 or CaSO4:2H2O. The electron species e- is
// recognized as a massless species with charge -1.
func ParseFormula(s string) (Formula, error) {
	orig := s
	for _, suffix := range aggregateSuffixes {
		s = strings.TrimSuffix(s, suffix)
	}
	if s == "" {
		return Formula{}, fmt.Errorf("empty formula")
	}
	if s == "e-" {
		return Formula{Str: orig, Elements: map[string]float64{}, Charge: -1}, nil
	}

	body, charge, err := splitCharge(s)
	if err != nil {
		return Formula{}, fmt.Errorf("formula %q: %w", orig, err)
	}

	p := &formulaParser{input: body}
	elems := map[string]float64{}
	if err := p.parseInto(elems, 1.0); err != nil {
		return Formula{}, fmt.Errorf("formula %q: %w", orig, err)
	}

	var mass float64
	for symbol, coeff := range elems {
		e, err := LookupElement(symbol)
		if err != nil {
			return Formula{}, fmt.Errorf("formula %q: %w", orig, err)
		}
		mass += coeff * e.MolarMass
	}

	return Formula{Str: orig, Elements: elems, Charge: charge, MolarMass: mass}, nil
}

// splitCharge removes a trailing charge suffix (+, -, +2, -2, ...) and
// returns the remaining body and the signed charge.
func splitCharge(s string) (string, float64, error) {
	i := strings.LastIndexAny(s, "+-")
	if i < 0 {
		return s, 0, nil
	}
	// A sign inside the body (e.g. a typo) is only a charge marker when
	// everything after it is digits.
	tail := s[i+1:]
	for _, r := range tail {
		if !unicode.IsDigit(r) {
			return s, 0, nil
		}
	}
	if i == 0 {
		return "", 0, fmt.Errorf("charge without formula body")
	}
	sign := 1.0
	if s[i] == '-' {
		sign = -1.0
	}
	magnitude := 1.0
	if tail != "" {
		var n float64
		if _, err := fmt.Sscanf(tail, "%f", &n); err != nil {
			return "", 0, fmt.Errorf("invalid charge suffix %q", s[i:])
		}
		magnitude = n
	}
	return s[:i], sign * magnitude, nil
}

type formulaParser struct {
	input string
	pos   int
}

// parseInto accumulates element coefficients, scaled by factor, until the
// end of the input or a closing parenthesis.
func (p *formulaParser) parseInto(elems map[string]float64, factor float64) error {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == ')':
			return nil
		case c == '(':
			p.pos++
			group := map[string]float64{}
			if err := p.parseInto(group, 1.0); err != nil {
				return err
			}
			if p.pos >= len(p.input) || p.input[p.pos] != ')' {
				return fmt.Errorf("unbalanced parenthesis")
			}
			p.pos++
			count := p.number(1.0)
			for sym, coeff := range group {
				elems[sym] += factor * count * coeff
			}
		case c == ':':
			// Hydrate notation: the tail (with an optional leading
			// multiplier) is a whole formula of its own, e.g. CaSO4:2H2O.
			p.pos++
			mult := p.number(1.0)
			return p.parseInto(elems, factor*mult)
		case unicode.IsUpper(rune(c)):
			sym := p.symbol()
			if !KnownElement(sym) {
				return fmt.Errorf("unknown element symbol %q", sym)
			}
			count := p.number(1.0)
			elems[sym] += factor * count
		default:
			return fmt.Errorf("unexpected character %q at position %d", c, p.pos)
		}
	}
	return nil
}

// symbol consumes an element symbol: an uppercase letter followed by any
// lowercase letters.
func (p *formulaParser) symbol() string {
	start := p.pos
	p.pos++
	for p.pos < len(p.input) && unicode.IsLower(rune(p.input[p.pos])) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// number consumes an optional (possibly fractional) coefficient,
// returning def when none is present.
func (p *formulaParser) number(def float64) float64 {
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(rune(p.input[p.pos])) || p.input[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		return def
	}
	var n float64
	if _, err := fmt.Sscanf(p.input[start:p.pos], "%f", &n); err != nil {
		return def
	}
	return n
}
