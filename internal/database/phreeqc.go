package database

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"aquachem/internal/chem"
)

// The PHREEQC data blocks the parser understands. Other blocks are
// skipped without error so that full upstream database files load.
const (
	blockNone            = ""
	blockSolutionMaster  = "SOLUTION_MASTER_SPECIES"
	blockSolutionSpecies = "SOLUTION_SPECIES"
	blockExchangeMaster  = "EXCHANGE_MASTER_SPECIES"
	blockExchangeSpecies = "EXCHANGE_SPECIES"
	blockPhases          = "PHASES"
)

// reactionTerm is one side entry of a mass-action equation.
type reactionTerm struct {
	Coeff   float64
	Species string
}

// speciesEntry is a species definition accumulated during parsing,
// before Gibbs energies are resolved.
type speciesEntry struct {
	name          string
	formula       string
	state         chem.AggregateState
	logK          float64
	reactants     []reactionTerm
	products      []reactionTerm
	definedOnLeft bool // phases define the new species on the left-hand side
	primary       bool
	gammaA        float64
	gammaB        float64
	hasGamma      bool
}

// Load reads a PHREEQC-format database file from disk.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database file: %w", err)
	}
	defer f.Close()
	db, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse database file %s: %w", path, err)
	}
	return db, nil
}

// Parse reads a PHREEQC-format database from r and resolves standard
// Gibbs energies for every defined species from the reaction log K
// values, with primary species pinned at zero.
func Parse(r io.Reader) (*Database, error) {
	entries, err := scanEntries(r)
	if err != nil {
		return nil, err
	}
	return resolve(entries)
}

// scanEntries performs the line-level pass over the database text.
func scanEntries(r io.Reader) ([]*speciesEntry, error) {
	var (
		entries      []*speciesEntry
		current      *speciesEntry
		block        = blockNone
		pendingPhase string
		lineno       int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if isBlockKeyword(trimmed) {
			if trimmed == "END" {
				block = blockNone
			} else {
				block = trimmed
			}
			current = nil
			pendingPhase = ""
			continue
		}

		switch block {
		case blockSolutionMaster, blockExchangeMaster:
			// Master species lines associate elements with their primary
			// species; the species themselves are defined by identity
			// reactions in the species blocks, so only sanity-check here.
			if len(strings.Fields(trimmed)) < 2 {
				return nil, fmt.Errorf("line %d: malformed master species line %q", lineno, trimmed)
			}

		case blockSolutionSpecies, blockExchangeSpecies:
			state := chem.AggregateAqueous
			if block == blockExchangeSpecies {
				state = chem.AggregateExchange
			}
			switch {
			case strings.Contains(trimmed, "="):
				entry, err := parseReaction(trimmed, state, lineno)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
				current = entry
			case current != nil:
				if err := parseModifier(trimmed, current, lineno); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("line %d: unexpected line %q outside species definition", lineno, trimmed)
			}

		case blockPhases:
			switch {
			case strings.Contains(trimmed, "="):
				if pendingPhase == "" {
					return nil, fmt.Errorf("line %d: phase reaction %q without a phase name", lineno, trimmed)
				}
				entry, err := parsePhaseReaction(pendingPhase, trimmed, lineno)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
				current = entry
				pendingPhase = ""
			case strings.HasPrefix(trimmed, "-") || strings.HasPrefix(strings.ToLower(trimmed), "log_k") || strings.HasPrefix(strings.ToLower(trimmed), "delta_h"):
				if current == nil {
					return nil, fmt.Errorf("line %d: modifier %q outside phase definition", lineno, trimmed)
				}
				if err := parseModifier(trimmed, current, lineno); err != nil {
					return nil, err
				}
			default:
				pendingPhase = strings.Fields(trimmed)[0]
				current = nil
			}

		case blockNone:
			// Content outside a recognized block (e.g. blocks this parser
			// does not model) is skipped.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}
	return entries, nil
}

// isBlockKeyword reports whether line is a PHREEQC block keyword.
func isBlockKeyword(line string) bool {
	if line != strings.ToUpper(line) {
		return false
	}
	switch line {
	case blockSolutionMaster, blockSolutionSpecies, blockExchangeMaster,
		blockExchangeSpecies, blockPhases, "END":
		return true
	}
	// Unmodeled blocks (RATES, SURFACE_SPECIES, ...) still terminate the
	// current block so their content is skipped rather than misparsed.
	return strings.IndexFunc(line, func(r rune) bool {
		return !(r == '_' || (r >= 'A' && r <= 'Z'))
	}) < 0 && strings.Contains(line, "_")
}

// parseReaction parses a mass-action line of the form
// "CO3-2 + H+ = HCO3-" defining the first right-hand species.
func parseReaction(line string, state chem.AggregateState, lineno int) (*speciesEntry, error) {
	reactants, products, err := splitEquation(line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineno, err)
	}
	defined := products[0]
	if defined.Coeff != 1 {
		return nil, fmt.Errorf("line %d: defined species %q must have coefficient 1", lineno, defined.Species)
	}
	entry := &speciesEntry{
		name:      defined.Species,
		formula:   defined.Species,
		state:     state,
		reactants: reactants,
		products:  products,
	}
	entry.primary = len(reactants) == 1 && len(products) == 1 &&
		reactants[0].Species == products[0].Species && reactants[0].Coeff == 1
	return entry, nil
}

// parsePhaseReaction parses a dissolution reaction of the form
// "CaCO3 = CO3-2 + Ca+2" defining the named phase on the left.
func parsePhaseReaction(name, line string, lineno int) (*speciesEntry, error) {
	reactants, products, err := splitEquation(line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineno, err)
	}
	if reactants[0].Coeff != 1 {
		return nil, fmt.Errorf("line %d: phase %q formula must have coefficient 1", lineno, name)
	}
	state := chem.AggregateSolid
	if strings.HasSuffix(name, "(g)") {
		state = chem.AggregateGas
	}
	return &speciesEntry{
		name:          name,
		formula:       reactants[0].Species,
		state:         state,
		reactants:     reactants,
		products:      products,
		definedOnLeft: true,
	}, nil
}

// splitEquation splits "A + 2 B = C + D" into reactant and product terms.
func splitEquation(line string) ([]reactionTerm, []reactionTerm, error) {
	sides := strings.SplitN(line, "=", 2)
	if len(sides) != 2 {
		return nil, nil, fmt.Errorf("malformed equation %q", line)
	}
	reactants, err := parseTerms(sides[0])
	if err != nil {
		return nil, nil, err
	}
	products, err := parseTerms(sides[1])
	if err != nil {
		return nil, nil, err
	}
	if len(reactants) == 0 || len(products) == 0 {
		return nil, nil, fmt.Errorf("equation %q has an empty side", line)
	}
	return reactants, products, nil
}

// parseTerms splits one equation side on " + " term separators. Species
// charges keep their signs because term separators require surrounding
// whitespace.
func parseTerms(side string) ([]reactionTerm, error) {
	var terms []reactionTerm
	for _, raw := range strings.Split(side, " + ") {
		fields := strings.Fields(raw)
		switch len(fields) {
		case 0:
			continue
		case 1:
			coeff, name := splitCoeff(fields[0])
			terms = append(terms, reactionTerm{Coeff: coeff, Species: name})
		case 2:
			coeff, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid stoichiometric coefficient %q", fields[0])
			}
			terms = append(terms, reactionTerm{Coeff: coeff, Species: fields[1]})
		default:
			return nil, fmt.Errorf("malformed reaction term %q", raw)
		}
	}
	return terms, nil
}

// splitCoeff splits a leading numeric coefficient glued to a species
// name, e.g. "2H2O" -> (2, "H2O").
func splitCoeff(token string) (float64, string) {
	i := 0
	for i < len(token) && (token[i] >= '0' && token[i] <= '9' || token[i] == '.') {
		i++
	}
	if i == 0 || i == len(token) {
		return 1, token
	}
	coeff, err := strconv.ParseFloat(token[:i], 64)
	if err != nil {
		return 1, token
	}
	return coeff, token[i:]
}

// parseModifier applies a continuation line (log_k, -gamma, ...) to the
// current species entry. Unrecognized modifiers are ignored.
func parseModifier(line string, entry *speciesEntry, lineno int) error {
	fields := strings.Fields(line)
	key := strings.ToLower(strings.TrimPrefix(fields[0], "-"))
	switch key {
	case "log_k", "logk":
		if len(fields) < 2 {
			return fmt.Errorf("line %d: log_k without a value", lineno)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid log_k value %q", lineno, fields[1])
		}
		entry.logK = v
	case "gamma":
		if len(fields) < 3 {
			return fmt.Errorf("line %d: -gamma requires two parameters", lineno)
		}
		a, err1 := strconv.ParseFloat(fields[1], 64)
		b, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("line %d: invalid -gamma parameters %q", lineno, line)
		}
		entry.gammaA, entry.gammaB, entry.hasGamma = a, b, true
	}
	return nil
}

// resolve derives standard Gibbs energies for all entries and builds the
// database. Primary species are pinned at G0 = 0; each secondary species
// gets the G0 that reproduces its reaction's log K at 298.15 K.
func resolve(entries []*speciesEntry) (*Database, error) {
	const rtln10 = chem.GasConstant * chem.StandardTemperature * math.Ln10

	g0 := make(map[string]float64)
	for _, e := range entries {
		if e.primary {
			g0[e.name] = 0
		}
	}

	unresolved := make([]*speciesEntry, 0, len(entries))
	for _, e := range entries {
		if !e.primary {
			unresolved = append(unresolved, e)
		}
	}

	for len(unresolved) > 0 {
		progress := false
		remaining := unresolved[:0]
		for _, e := range unresolved {
			value, ok := reactionGibbs(e, g0, rtln10)
			if !ok {
				remaining = append(remaining, e)
				continue
			}
			if _, dup := g0[e.name]; dup {
				return nil, fmt.Errorf("species %q defined more than once", e.name)
			}
			g0[e.name] = value
			progress = true
		}
		unresolved = remaining
		if !progress && len(unresolved) > 0 {
			names := make([]string, len(unresolved))
			for i, e := range unresolved {
				names[i] = e.name
			}
			return nil, fmt.Errorf("could not resolve Gibbs energies for species %v: reactions reference undefined species", names)
		}
	}

	db := New()
	for _, e := range entries {
		sp, err := chem.NewSpecies(e.name, e.formula, e.state)
		if err != nil {
			return nil, err
		}
		sp.G0 = g0[e.name]
		if e.hasGamma {
			sp.IonSize = e.gammaA
			sp.BDot = e.gammaB
		}
		if err := db.AddSpecies(sp); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// reactionGibbs computes the defined species' G0 from its reaction when
// every other participant already has a known G0.
func reactionGibbs(e *speciesEntry, g0 map[string]float64, rtln10 float64) (float64, bool) {
	sum := func(terms []reactionTerm, sign float64, total *float64) bool {
		for _, t := range terms {
			if t.Species == e.name && !e.definedOnLeft {
				continue
			}
			if e.definedOnLeft && t.Species == e.formula && sign < 0 {
				continue
			}
			v, ok := g0[t.Species]
			if !ok {
				return false
			}
			*total += sign * t.Coeff * v
		}
		return true
	}

	// delta_G = -RT ln10 logK = sum(products) - sum(reactants), with the
	// defined species excluded from its own side.
	var total float64
	if e.definedOnLeft {
		// Phase dissolution: phase = products. G(phase) = sum(products) + RT ln10 logK.
		if !sum(e.products, 1, &total) || !sum(e.reactants, -1, &total) {
			return 0, false
		}
		return total + rtln10*e.logK, true
	}
	// Secondary species: reactants = ... + defined. G(defined) = sum(reactants) - sum(other products) - RT ln10 logK.
	if !sum(e.reactants, 1, &total) || !sum(e.products, -1, &total) {
		return 0, false
	}
	return total - rtln10*e.logK, true
}
