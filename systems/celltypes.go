// Package systems implements the regulatory and patterning stack: the
// morphogen field, the gene evaluator, the interaction matrix generator,
// the developmental stage controller, and segment assignment.
package systems

import "fmt"

// CellType is a dense index into the fixed cell type catalog.
// The set is closed: variants are created once at initialization and
// referenced by index everywhere else.
type CellType int

const (
	CellStem CellType = iota
	CellEpithelial
	CellNeural
	CellMuscle
	CellTracheal
	CellFat
	CellCuticle
	CellHemolymph
	CellSegment
	CellAppendage

	NumCellTypes
)

var cellTypeNames = [NumCellTypes]string{
	"Stem", "Epithelial", "Neural", "Muscle", "Tracheal",
	"Fat", "Cuticle", "Hemolymph", "Segment", "Appendage",
}

func (t CellType) String() string {
	if t < 0 || t >= NumCellTypes {
		return fmt.Sprintf("CellType(%d)", int(t))
	}
	return cellTypeNames[t]
}

// CellTypeInfo holds a cell type's immutable physical attributes.
type CellTypeInfo struct {
	Type         CellType
	Name         string
	Radius       float32
	Mass         float32
	InitialCount int
	SelfAffinity float64
	Color        [3]uint8 // hint for the visualization layer
}

// CellTypeDescriptor is the shape the particle engine consumes.
type CellTypeDescriptor struct {
	Radius      float32
	Mass        float32
	SpawnTarget int
}

// CellCatalog is the dense, startup-built cell type table.
type CellCatalog struct {
	types  []CellTypeInfo
	byName map[string]CellType
}

// defaultCellTypes is the fixed biological table. Counts are pre-scale
// spawn targets; self-affinity is the diagonal of the interaction matrix.
var defaultCellTypes = []CellTypeInfo{
	{Type: CellStem, Name: "Stem", Radius: 0.10, Mass: 1.0, InitialCount: 60, SelfAffinity: 0.25, Color: [3]uint8{200, 200, 200}},
	{Type: CellEpithelial, Name: "Epithelial", Radius: 0.09, Mass: 0.9, InitialCount: 120, SelfAffinity: 0.70, Color: [3]uint8{240, 190, 150}},
	{Type: CellNeural, Name: "Neural", Radius: 0.07, Mass: 0.7, InitialCount: 50, SelfAffinity: 0.55, Color: [3]uint8{120, 140, 255}},
	{Type: CellMuscle, Name: "Muscle", Radius: 0.11, Mass: 1.4, InitialCount: 70, SelfAffinity: 0.65, Color: [3]uint8{220, 80, 80}},
	{Type: CellTracheal, Name: "Tracheal", Radius: 0.08, Mass: 0.8, InitialCount: 35, SelfAffinity: 0.45, Color: [3]uint8{170, 230, 230}},
	{Type: CellFat, Name: "Fat", Radius: 0.12, Mass: 1.1, InitialCount: 45, SelfAffinity: 0.50, Color: [3]uint8{250, 230, 120}},
	{Type: CellCuticle, Name: "Cuticle", Radius: 0.09, Mass: 1.2, InitialCount: 55, SelfAffinity: 0.80, Color: [3]uint8{140, 100, 60}},
	{Type: CellHemolymph, Name: "Hemolymph", Radius: 0.06, Mass: 0.5, InitialCount: 40, SelfAffinity: 0.10, Color: [3]uint8{120, 220, 140}},
	{Type: CellSegment, Name: "Segment", Radius: 0.10, Mass: 1.0, InitialCount: 30, SelfAffinity: 0.60, Color: [3]uint8{160, 120, 200}},
	{Type: CellAppendage, Name: "Appendage", Radius: 0.085, Mass: 0.85, InitialCount: 25, SelfAffinity: 0.60, Color: [3]uint8{255, 150, 60}},
}

// NewCellCatalog builds the catalog and its name index once at startup.
func NewCellCatalog() (*CellCatalog, error) {
	return newCellCatalog(defaultCellTypes)
}

func newCellCatalog(types []CellTypeInfo) (*CellCatalog, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("empty cell type table")
	}
	c := &CellCatalog{
		types:  make([]CellTypeInfo, len(types)),
		byName: make(map[string]CellType, len(types)),
	}
	copy(c.types, types)
	for i, t := range c.types {
		if CellType(i) != t.Type {
			return nil, fmt.Errorf("cell type %q at position %d has index %d", t.Name, i, t.Type)
		}
		c.byName[t.Name] = t.Type
	}
	return c, nil
}

// Len returns the number of cell types.
func (c *CellCatalog) Len() int { return len(c.types) }

// Info returns the catalog entry for a cell type.
func (c *CellCatalog) Info(t CellType) CellTypeInfo { return c.types[int(t)] }

// All returns the full catalog in index order.
func (c *CellCatalog) All() []CellTypeInfo { return c.types }

// ByName resolves a cell type name to its dense index.
func (c *CellCatalog) ByName(name string) (CellType, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// ResolveNames maps cell type names to indices, failing on unknown names.
// Used during config wiring where a dangling reference is a startup error.
func (c *CellCatalog) ResolveNames(names []string) ([]CellType, error) {
	out := make([]CellType, 0, len(names))
	for _, n := range names {
		t, ok := c.byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown cell type %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}

// Descriptors builds the engine-facing descriptor list, scaling the
// initial counts by populationScale.
func (c *CellCatalog) Descriptors(populationScale float64) []CellTypeDescriptor {
	if populationScale <= 0 {
		populationScale = 1
	}
	out := make([]CellTypeDescriptor, len(c.types))
	for i, t := range c.types {
		out[i] = CellTypeDescriptor{
			Radius:      t.Radius,
			Mass:        t.Mass,
			SpawnTarget: int(float64(t.InitialCount) * populationScale),
		}
	}
	return out
}
