package bodyplan

import (
	"math"

	"github.com/instar-sim/instar/systems"
)

// ActivationShape is the closed-form activation curve of a module.
type ActivationShape uint8

const (
	ShapeRamp ActivationShape = iota
	ShapePulse
	ShapeWindow
)

// ParseShape resolves a shape name from config.
func ParseShape(name string) (ActivationShape, bool) {
	switch name {
	case "ramp":
		return ShapeRamp, true
	case "pulse":
		return ShapePulse, true
	case "window":
		return ShapeWindow, true
	}
	return ShapeRamp, false
}

// DevelopmentalModule is a named, time-windowed activation rule. Each tick
// it computes an activation level from development progress and, above its
// threshold, triggers morphogen and gene activation.
type DevelopmentalModule struct {
	Name      string
	Shape     ActivationShape
	Start     float64 // progress window, [Start,End)
	End       float64
	Threshold float64
	Morphogen string
	Amount    float64
	Gene      string // optional: forced expression while active
}

// Activation computes the module's activation level for a progress value.
// Zero outside the window.
func (m *DevelopmentalModule) Activation(progress float64) float64 {
	if progress < m.Start || progress >= m.End {
		return 0
	}
	u := (progress - m.Start) / (m.End - m.Start)
	switch m.Shape {
	case ShapePulse:
		return math.Sin(u * math.Pi)
	case ShapeWindow:
		// Ramp up then exponential tail-off across the window,
		// normalized to peak at 1 (u = 1/3).
		return u * math.Exp(-3*u) * 3 * math.E
	default:
		return u
	}
}

// Apply evaluates the module and, above threshold, fires its activations.
// Returns true when the module fired.
func (m *DevelopmentalModule) Apply(progress float64, field *systems.MorphogenField, genes *systems.GeneEvaluator) bool {
	level := m.Activation(progress)
	if level <= m.Threshold {
		return false
	}
	if m.Morphogen != "" {
		field.Activate(m.Morphogen, m.Amount*level)
	}
	if m.Gene != "" {
		genes.Express(m.Gene, true)
	}
	return true
}
