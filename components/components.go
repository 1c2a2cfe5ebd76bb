// Package components defines ECS components for the particle engine and
// the shared snapshot vocabulary between the engine and the core.
package components

import "github.com/go-gl/mathgl/mgl32"

// Position is an entity's world position.
type Position struct {
	X, Y, Z float32
}

// Vec3 returns the position as a vector.
func (p Position) Vec3() mgl32.Vec3 { return mgl32.Vec3{p.X, p.Y, p.Z} }

// Velocity is an entity's velocity.
type Velocity struct {
	X, Y, Z float32
}

// Vec3 returns the velocity as a vector.
func (v Velocity) Vec3() mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }

// Phenotype ties a particle to its cell type's dense index. A negative
// index marks the particle inactive; consumers skip it.
type Phenotype struct {
	TypeIndex int16
}

// ParticleState is one particle in an engine snapshot.
type ParticleState struct {
	Position  mgl32.Vec3
	Velocity  mgl32.Vec3
	TypeIndex int
}
