package systems

// Stage is a discrete developmental phase.
type Stage uint8

const (
	StageEgg Stage = iota
	StageEmbryo
	StageLarva
	StagePupa
	StageAdult

	NumStages
)

var stageNames = [NumStages]string{"Egg", "Embryo", "Larva", "Pupa", "Adult"}

func (s Stage) String() string {
	if s >= NumStages {
		return "Unknown"
	}
	return stageNames[s]
}

// ParseStage resolves a stage name.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), true
		}
	}
	return StageEgg, false
}

// StageKinetics bundles the kinetic parameters one stage pushes onto the
// particle engine and the local rate fields.
type StageKinetics struct {
	InteractionStrength float64
	Dampening           float64
	InteractionRadius   float64
	DivisionRate        float64
	DifferentiationRate float64
	MigrationRate       float64
	BoundsScale         float64
}

// StageThresholds holds the age cutoffs: age < Egg -> Egg, < Embryo ->
// Embryo, and so on; AdultFull is where progress saturates at 1.
type StageThresholds struct {
	Egg, Embryo, Larva, Pupa, AdultFull float64
}

// Rates are the locally held developmental rates, reset from the active
// stage's bundle each tick and then open to heterochronic rescaling.
type Rates struct {
	Division        float64
	Differentiation float64
	Migration       float64
}

// StageController is the developmental finite-state machine. Transitions
// are driven purely by elapsed age against fixed thresholds and are
// monotonic, except for an explicit SetStage override.
type StageController struct {
	age        float64
	stage      Stage
	thresholds StageThresholds
	kinetics   [NumStages]StageKinetics

	// Rates for the current tick, re-derived from the stage bundle on
	// every Advance and then subject to heterochrony.
	Rates Rates
}

// NewStageController starts at Egg with age zero.
func NewStageController(thresholds StageThresholds, kinetics [NumStages]StageKinetics) *StageController {
	c := &StageController{
		thresholds: thresholds,
		kinetics:   kinetics,
	}
	c.Rates = c.baseRates(StageEgg)
	return c
}

// StageForAge resolves the stage an age falls into.
func (c *StageController) StageForAge(age float64) Stage {
	t := c.thresholds
	switch {
	case age < t.Egg:
		return StageEgg
	case age < t.Embryo:
		return StageEmbryo
	case age < t.Larva:
		return StageLarva
	case age < t.Pupa:
		return StagePupa
	default:
		return StageAdult
	}
}

// stageStart returns the canonical representative age for a stage: the
// age at which it begins.
func (c *StageController) stageStart(s Stage) float64 {
	t := c.thresholds
	switch s {
	case StageEgg:
		return 0
	case StageEmbryo:
		return t.Egg
	case StageLarva:
		return t.Embryo
	case StagePupa:
		return t.Larva
	default:
		return t.Pupa
	}
}

func (c *StageController) baseRates(s Stage) Rates {
	k := c.kinetics[s]
	return Rates{
		Division:        k.DivisionRate,
		Differentiation: k.DifferentiationRate,
		Migration:       k.MigrationRate,
	}
}

// Advance ages the organism by dt and resolves the stage. The kinetic
// bundle is re-pushed by the caller every tick regardless of whether the
// stage changed. Returns true on a transition.
func (c *StageController) Advance(dt float64) bool {
	c.age += dt
	next := c.StageForAge(c.age)
	changed := next != c.stage
	c.stage = next
	c.Rates = c.baseRates(next)
	return changed
}

// SetStage overrides the state machine, resetting age to the stage's
// canonical representative value. The only way to move backward.
func (c *StageController) SetStage(s Stage) {
	if s >= NumStages {
		s = StageAdult
	}
	c.stage = s
	c.age = c.stageStart(s)
	c.Rates = c.baseRates(s)
}

// Reset returns the controller to a fresh Egg.
func (c *StageController) Reset() {
	c.stage = StageEgg
	c.age = 0
	c.Rates = c.baseRates(StageEgg)
}

// Stage returns the active stage.
func (c *StageController) Stage() Stage { return c.stage }

// Age returns the developmental age.
func (c *StageController) Age() float64 { return c.age }

// Kinetics returns the active stage's kinetic bundle.
func (c *StageController) Kinetics() StageKinetics { return c.kinetics[c.stage] }

// CalculateProgress maps age onto [0,1] piecewise: each stage owns the
// sub-range ending at its threshold's share of the full developmental
// span. This progress value is the sole driver for the pattern layer.
func (c *StageController) CalculateProgress() float64 {
	t := c.thresholds
	bounds := [6]float64{0, t.Egg, t.Embryo, t.Larva, t.Pupa, t.AdultFull}
	marks := [6]float64{0, 0.1, 0.3, 0.6, 0.9, 1.0}

	age := c.age
	if age >= t.AdultFull {
		return 1
	}
	for i := 1; i < len(bounds); i++ {
		if age < bounds[i] {
			span := bounds[i] - bounds[i-1]
			frac := (age - bounds[i-1]) / span
			return marks[i-1] + frac*(marks[i]-marks[i-1])
		}
	}
	return 1
}
