package bodyplan

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/instar-sim/instar/systems"
)

// HomeoticParams guards the stochastic identity-swap transform.
type HomeoticParams struct {
	Rate      float64 // per-second probability, scaled by dt
	WindowMin float64 // progress window (exclusive bounds)
	WindowMax float64
}

// HeterochronyParams tunes the continuous timing-rate shift.
type HeterochronyParams struct {
	Factor                float64
	Deadband              float64
	DivisionWeight        float64
	DifferentiationWeight float64
	MigrationWeight       float64
	MinScale              float64 // safety clamp on the rescale factor
	MaxScale              float64
}

// AllometricParams tunes differential segment growth.
type AllometricParams struct {
	Step      float64 // base per-tick size delta (scaled by range weight and dt)
	Constrain bool
	MinSize   float64
	MaxSize   float64
}

// EvoDevo applies the evolutionary-developmental transforms each tick.
type EvoDevo struct {
	rng *rand.Rand

	Homeotic     HomeoticParams
	Heterochrony HeterochronyParams
	Allometric   AllometricParams
}

// NewEvoDevo creates the transform runner with its own RNG stream.
func NewEvoDevo(rng *rand.Rand, h HomeoticParams, het HeterochronyParams, al AllometricParams) *EvoDevo {
	return &EvoDevo{rng: rng, Homeotic: h, Heterochrony: het, Allometric: al}
}

// ApplyHomeotic rolls for a homeotic transformation: with probability
// rate*dt, inside the mid-development window only, a random mutable
// segment takes on an adjacent segment's identity. The target keeps its
// relative position; only identity attributes transfer. Returns the
// target and donor indices when a transformation fired.
func (e *EvoDevo) ApplyHomeotic(segments []systems.BodySegment, progress, dt float64) (target, donor int, ok bool) {
	if progress <= e.Homeotic.WindowMin || progress >= e.Homeotic.WindowMax {
		return 0, 0, false
	}
	if e.rng.Float64() >= e.Homeotic.Rate*dt {
		return 0, 0, false
	}

	mutable := make([]int, 0, len(segments))
	for i := range segments {
		if segments[i].Mutable {
			mutable = append(mutable, i)
		}
	}
	if len(mutable) == 0 {
		return 0, 0, false
	}
	target = mutable[e.rng.Intn(len(mutable))]

	// Donor is a neighbor; fall back to the other side at the ends.
	donor = target - 1
	if e.rng.Intn(2) == 1 {
		donor = target + 1
	}
	if donor < 0 {
		donor = target + 1
	}
	if donor >= len(segments) {
		donor = target - 1
	}
	if donor < 0 || donor == target {
		return 0, 0, false
	}

	segments[target].CopyIdentityFrom(&segments[donor])
	slog.Debug("homeotic transformation",
		"target", segments[target].Name,
		"donor", segments[donor].Name,
		"progress", progress,
	)
	return target, donor, true
}

// ApplyHeterochrony rescales the stage controller's division,
// differentiation, and migration rates by 1 + factor*weight (distinct
// weights per rate), clamped to the safety range. Inside the deadband the
// rates are left untouched.
func (e *EvoDevo) ApplyHeterochrony(ctrl *systems.StageController) {
	h := e.Heterochrony
	if math.Abs(h.Factor) <= h.Deadband {
		return
	}
	ctrl.Rates.Division *= e.clampScale(1 + h.Factor*h.DivisionWeight)
	ctrl.Rates.Differentiation *= e.clampScale(1 + h.Factor*h.DifferentiationWeight)
	ctrl.Rates.Migration *= e.clampScale(1 + h.Factor*h.MigrationWeight)
}

func (e *EvoDevo) clampScale(s float64) float64 {
	h := e.Heterochrony
	if s < h.MinScale {
		return h.MinScale
	}
	if s > h.MaxScale {
		return h.MaxScale
	}
	return s
}

// ApplyAllometric grows or shrinks the preset's segment ranges during the
// Embryo and Larva stages only. Each range applies a signed per-tick size
// delta; sizes are clamped to [MinSize,MaxSize] when constraints are on.
func (e *EvoDevo) ApplyAllometric(segments []systems.BodySegment, growth []GrowthRange, stage systems.Stage, dt float64) {
	if stage != systems.StageEmbryo && stage != systems.StageLarva {
		return
	}
	n := len(segments)
	if n == 0 {
		return
	}

	for _, g := range growth {
		lo := clamp(int(g.FromFrac*float64(n)), 0, n-1)
		hi := clamp(int(g.ToFrac*float64(n)), 0, n)
		for i := lo; i < hi; i++ {
			segments[i].Size += e.Allometric.Step * g.Weight * dt
			if e.Allometric.Constrain {
				if segments[i].Size < e.Allometric.MinSize {
					segments[i].Size = e.Allometric.MinSize
				}
				if segments[i].Size > e.Allometric.MaxSize {
					segments[i].Size = e.Allometric.MaxSize
				}
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
