// Package engine is the reference particle engine: an ark ECS world that
// consumes cell-type descriptors, the interaction matrix, and stage
// kinetics, and produces per-tick particle snapshots for the core.
package engine

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/instar-sim/instar/components"
	"github.com/instar-sim/instar/systems"
)

// Engine owns the particle world. All mutation happens on the tick thread.
type Engine struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Velocity, components.Phenotype]
	filter *ecs.Filter3[components.Position, components.Velocity, components.Phenotype]
	rng    *rand.Rand

	descriptors []systems.CellTypeDescriptor
	matrix      []float32 // dense n*n attraction values
	n           int

	strength    float32
	dampening   float32
	radius      float32
	boundsScale float32
	bounds      mgl32.Vec3

	maxParticles int

	// Reused per-tick scratch
	snapshot []components.ParticleState
	entities []ecs.Entity
	forces   []mgl32.Vec3
	counts   []int
}

// New creates an empty engine. Deterministic for a given seed.
func New(seed int64, maxParticles int) *Engine {
	world := ecs.NewWorld()
	return &Engine{
		world:        world,
		mapper:       ecs.NewMap3[components.Position, components.Velocity, components.Phenotype](world),
		filter:       ecs.NewFilter3[components.Position, components.Velocity, components.Phenotype](world),
		rng:          rand.New(rand.NewSource(seed)),
		maxParticles: maxParticles,
		boundsScale:  1,
		bounds:       mgl32.Vec3{1, 1, 1},
	}
}

// ApplyCellTypes installs the descriptor list and reconciles populations
// toward the spawn targets.
func (e *Engine) ApplyCellTypes(types []systems.CellTypeDescriptor) {
	e.descriptors = append(e.descriptors[:0], types...)
	if len(e.counts) != len(types) {
		e.counts = make([]int, len(types))
	}
	e.reconcile()
}

// ApplyRules installs the full interaction matrix. The rule list must be
// the dense ordered closure (TypeA major) over n cell types.
func (e *Engine) ApplyRules(rules []systems.InteractionRule, n int) {
	if len(rules) != n*n {
		return
	}
	e.n = n
	if len(e.matrix) != n*n {
		e.matrix = make([]float32, n*n)
	}
	for i := range rules {
		e.matrix[int(rules[i].TypeA)*n+int(rules[i].TypeB)] = float32(rules[i].Attraction)
	}
}

// ApplyKinetics installs the stage kinetic bundle.
func (e *Engine) ApplyKinetics(k systems.StageKinetics) {
	e.strength = float32(k.InteractionStrength)
	e.dampening = float32(k.Dampening)
	e.radius = float32(k.InteractionRadius)
	e.boundsScale = float32(k.BoundsScale)
}

// SetBounds installs the full-size spatial bounds vector. The effective
// extent is scaled by the stage's bounds scale factor.
func (e *Engine) SetBounds(bounds mgl32.Vec3) {
	e.bounds = bounds
}

// UpdateSpawnTarget adjusts one cell type's target population.
func (e *Engine) UpdateSpawnTarget(typeIndex, count int) {
	if typeIndex < 0 || typeIndex >= len(e.descriptors) {
		return
	}
	e.descriptors[typeIndex].SpawnTarget = count
	e.reconcile()
}

// Reset removes every particle and respawns from the descriptors.
func (e *Engine) Reset() {
	var toRemove []ecs.Entity
	query := e.filter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, ent := range toRemove {
		e.mapper.Remove(ent)
	}
	e.snapshot = e.snapshot[:0]
	e.reconcile()
}

// reconcile spawns or despawns particles per type until counts match the
// spawn targets, respecting the global particle cap.
func (e *Engine) reconcile() {
	for i := range e.counts {
		e.counts[i] = 0
	}
	total := 0

	// Collect surplus entities per type in one pass.
	surplus := make(map[int][]ecs.Entity)
	query := e.filter.Query()
	for query.Next() {
		_, _, ph := query.Get()
		ti := int(ph.TypeIndex)
		if ti < 0 || ti >= len(e.descriptors) {
			continue
		}
		e.counts[ti]++
		total++
		if e.counts[ti] > e.descriptors[ti].SpawnTarget {
			surplus[ti] = append(surplus[ti], query.Entity())
		}
	}

	for ti, ents := range surplus {
		excess := e.counts[ti] - e.descriptors[ti].SpawnTarget
		for i := 0; i < excess && i < len(ents); i++ {
			e.mapper.Remove(ents[i])
			e.counts[ti]--
			total--
		}
	}

	half := e.halfExtent()
	for ti := range e.descriptors {
		for e.counts[ti] < e.descriptors[ti].SpawnTarget {
			if e.maxParticles > 0 && total >= e.maxParticles {
				return
			}
			pos := components.Position{
				X: (e.rng.Float32()*2 - 1) * half[0],
				Y: (e.rng.Float32()*2 - 1) * half[1],
				Z: (e.rng.Float32()*2 - 1) * half[2],
			}
			vel := components.Velocity{}
			ph := components.Phenotype{TypeIndex: int16(ti)}
			e.mapper.NewEntity(&pos, &vel, &ph)
			e.counts[ti]++
			total++
		}
	}
}

func (e *Engine) halfExtent() mgl32.Vec3 {
	return e.bounds.Mul(e.boundsScale * 0.5)
}

// Step integrates one tick: pairwise attraction within the interaction
// radius scaled by the matrix, close-range separation, dampening, and
// bounds reflection.
func (e *Engine) Step(dt float32) {
	e.collect()
	n := len(e.snapshot)
	if n == 0 {
		return
	}

	if cap(e.forces) < n {
		e.forces = make([]mgl32.Vec3, n)
	}
	e.forces = e.forces[:n]
	for i := range e.forces {
		e.forces[i] = mgl32.Vec3{}
	}

	radius := e.radius
	if e.n == 0 || len(e.matrix) != e.n*e.n {
		radius = 0 // no rules installed yet: free drift under dampening
	}
	for i := 0; i < n; i++ {
		pi := &e.snapshot[i]
		di := e.descriptors[pi.TypeIndex]
		for j := i + 1; j < n; j++ {
			pj := &e.snapshot[j]
			delta := pj.Position.Sub(pi.Position)
			dist := delta.Len()
			if dist <= 1e-6 || dist >= radius {
				continue
			}
			dir := delta.Mul(1 / dist)
			dj := e.descriptors[pj.TypeIndex]

			contact := di.Radius + dj.Radius
			if dist < contact {
				// Overlap separation dominates regardless of affinity.
				push := e.strength * (contact - dist) / contact
				e.forces[i] = e.forces[i].Sub(dir.Mul(push))
				e.forces[j] = e.forces[j].Add(dir.Mul(push))
				continue
			}

			falloff := 1 - dist/radius
			aij := e.matrix[pi.TypeIndex*e.n+pj.TypeIndex] * e.strength * falloff
			aji := e.matrix[pj.TypeIndex*e.n+pi.TypeIndex] * e.strength * falloff
			e.forces[i] = e.forces[i].Add(dir.Mul(aij))
			e.forces[j] = e.forces[j].Sub(dir.Mul(aji))
		}
	}

	half := e.halfExtent()
	damp := e.dampening * dt
	if damp > 1 {
		damp = 1
	}

	for i := 0; i < n; i++ {
		ent := e.entities[i]
		pos, vel, _ := e.mapper.Get(ent)

		mass := e.descriptors[e.snapshot[i].TypeIndex].Mass
		if mass <= 0 {
			mass = 1
		}
		accel := e.forces[i].Mul(1 / mass)

		vel.X = (vel.X + accel[0]*dt) * (1 - damp)
		vel.Y = (vel.Y + accel[1]*dt) * (1 - damp)
		vel.Z = (vel.Z + accel[2]*dt) * (1 - damp)

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Z += vel.Z * dt

		reflect(&pos.X, &vel.X, half[0])
		reflect(&pos.Y, &vel.Y, half[1])
		reflect(&pos.Z, &vel.Z, half[2])
	}
}

// reflect bounces a coordinate off the half-extent wall.
func reflect(p *float32, v *float32, half float32) {
	if half <= 0 {
		return
	}
	if *p > half {
		*p = half
		if *v > 0 {
			*v = -*v
		}
	} else if *p < -half {
		*p = -half
		if *v < 0 {
			*v = -*v
		}
	}
}

// collect rebuilds the snapshot and entity list from the world.
func (e *Engine) collect() {
	e.snapshot = e.snapshot[:0]
	e.entities = e.entities[:0]
	query := e.filter.Query()
	for query.Next() {
		pos, vel, ph := query.Get()
		e.entities = append(e.entities, query.Entity())
		e.snapshot = append(e.snapshot, components.ParticleState{
			Position:  pos.Vec3(),
			Velocity:  vel.Vec3(),
			TypeIndex: int(ph.TypeIndex),
		})
	}
}

// Snapshot returns the current particle states, or nil when the world is
// empty (callers treat that as a no-op tick).
func (e *Engine) Snapshot() []components.ParticleState {
	e.collect()
	if len(e.snapshot) == 0 {
		return nil
	}
	return e.snapshot
}

// Count returns the live particle total.
func (e *Engine) Count() int {
	n := 0
	query := e.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// CountByType returns per-type live particle counts.
func (e *Engine) CountByType() []int {
	counts := make([]int, len(e.descriptors))
	query := e.filter.Query()
	for query.Next() {
		_, _, ph := query.Get()
		ti := int(ph.TypeIndex)
		if ti >= 0 && ti < len(counts) {
			counts[ti]++
		}
	}
	return counts
}
