package systems

// InteractionRule couples an ordered pair of cell types to a scalar
// attraction value. Negative values repel.
type InteractionRule struct {
	TypeA      CellType
	TypeB      CellType
	Attraction float64
}

// PairAffinity is a symmetric base affinity between two distinct types.
type PairAffinity struct {
	A, B  CellType
	Value float64
}

// MatrixParams holds the base biological rule table knobs.
type MatrixParams struct {
	DefaultAttraction  float64 // uncovered pairs: slight repulsion
	StemAttraction     float64 // Stem -> other types
	HemolymphRepulsion float64 // Hemolymph -> other types
	PairRules          []PairAffinity
}

// MatrixGenerator synthesizes the full pairwise interaction closure
// (N^2 ordered rules including self-pairs) from the base biological table
// and the currently expressed genes.
type MatrixGenerator struct {
	catalog *CellCatalog
	params  MatrixParams
	n       int
	pairs   map[int]float64 // symmetric pair table keyed by a*n+b, both orders
	rules   []InteractionRule
}

// NewMatrixGenerator builds the generator and the initial base rule set.
func NewMatrixGenerator(catalog *CellCatalog, params MatrixParams) *MatrixGenerator {
	n := catalog.Len()
	m := &MatrixGenerator{
		catalog: catalog,
		params:  params,
		n:       n,
		pairs:   make(map[int]float64, len(params.PairRules)*2),
	}
	for _, p := range params.PairRules {
		m.pairs[int(p.A)*n+int(p.B)] = p.Value
		m.pairs[int(p.B)*n+int(p.A)] = p.Value
	}
	m.rules = m.generateBase()
	return m
}

// baseAttraction resolves the base table for one ordered pair. Self-pairs
// use the catalog's self-affinity, never the general table.
func (m *MatrixGenerator) baseAttraction(a, b CellType) float64 {
	if a == b {
		return m.catalog.Info(a).SelfAffinity
	}
	if v, ok := m.pairs[int(a)*m.n+int(b)]; ok {
		return v
	}
	if a == CellStem {
		return m.params.StemAttraction
	}
	if a == CellHemolymph {
		return m.params.HemolymphRepulsion
	}
	return m.params.DefaultAttraction
}

// generateBase produces the complete ordered closure.
func (m *MatrixGenerator) generateBase() []InteractionRule {
	rules := make([]InteractionRule, m.n*m.n)
	for a := 0; a < m.n; a++ {
		for b := 0; b < m.n; b++ {
			rules[a*m.n+b] = InteractionRule{
				TypeA:      CellType(a),
				TypeB:      CellType(b),
				Attraction: m.baseAttraction(CellType(a), CellType(b)),
			}
		}
	}
	return rules
}

// Regenerate rebuilds the rule set from the base table plus all currently
// expressed genes with result types. Each such gene rescales the value
// between its targets and every other type by its effect multiplier.
//
// Replacement policy: if at least one expressed gene yields rules, the
// entire set is replaced wholesale; rules are never patched in place.
// If no expressed gene yields any rule, the previous set is left
// untouched. Returns whether a replacement happened.
func (m *MatrixGenerator) Regenerate(genes []Gene) bool {
	modulating := false
	for i := range genes {
		if genes[i].Expressed && len(genes[i].Results) > 0 {
			modulating = true
			break
		}
	}
	if !modulating {
		return false
	}

	fresh := m.generateBase()
	for i := range genes {
		g := &genes[i]
		if !g.Expressed || len(g.Results) == 0 {
			continue
		}
		mult := g.Effect.Multiplier()
		for _, target := range g.Results {
			t := int(target)
			for other := 0; other < m.n; other++ {
				if other == t {
					continue
				}
				fresh[t*m.n+other].Attraction *= mult
				fresh[other*m.n+t].Attraction *= mult
			}
		}
	}

	m.rules = fresh
	return true
}

// Reset restores the unmodulated base rule set.
func (m *MatrixGenerator) Reset() {
	m.rules = m.generateBase()
}

// Rules returns the current rule set in dense (TypeA major) order.
func (m *MatrixGenerator) Rules() []InteractionRule { return m.rules }

// Value returns the current attraction for an ordered pair. Out-of-range
// indices clamp to the table edge rather than failing.
func (m *MatrixGenerator) Value(a, b CellType) float64 {
	ai := clampInt(int(a), 0, m.n-1)
	bi := clampInt(int(b), 0, m.n-1)
	return m.rules[ai*m.n+bi].Attraction
}

// NumTypes returns the matrix dimension.
func (m *MatrixGenerator) NumTypes() int { return m.n }
