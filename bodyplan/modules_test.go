package bodyplan

import (
	"math"
	"testing"

	"github.com/instar-sim/instar/systems"
)

func moduleTestField(t *testing.T) (*systems.MorphogenField, *systems.GeneEvaluator) {
	t.Helper()
	f, err := systems.NewMorphogenField([]systems.Morphogen{
		{Name: "Wingless", DiffusionRate: 0.5, Baseline: 0.1, Active: true},
	}, 4, 4, 4, systems.FieldOptions{})
	if err != nil {
		t.Fatal(err)
	}
	g, err := systems.NewGeneEvaluator([]systems.Gene{
		{Name: "WingAdhesionGene", Threshold: 0.9, Activators: []int{0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return f, g
}

func TestModuleActivationShapes(t *testing.T) {
	ramp := DevelopmentalModule{Shape: ShapeRamp, Start: 0.2, End: 0.6}
	pulse := DevelopmentalModule{Shape: ShapePulse, Start: 0.0, End: 1.0}
	window := DevelopmentalModule{Shape: ShapeWindow, Start: 0.0, End: 0.9}

	// Outside the window the level is exactly zero.
	for _, p := range []float64{0.0, 0.19, 0.6, 0.95} {
		if ramp.Activation(p) != 0 {
			t.Errorf("ramp at %f should be zero", p)
		}
	}

	// Ramp rises linearly across the window.
	if got := ramp.Activation(0.4); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("ramp midpoint = %f, want 0.5", got)
	}

	// Pulse peaks at the window midpoint.
	if got := pulse.Activation(0.5); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("pulse peak = %f, want 1.0", got)
	}
	if pulse.Activation(0.1) >= pulse.Activation(0.5) {
		t.Error("pulse should peak mid-window")
	}

	// Window peaks at one third of the window and decays after.
	peakAt := 0.9 / 3
	if got := window.Activation(peakAt); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("window peak = %f, want 1.0", got)
	}
	if window.Activation(0.8) >= window.Activation(peakAt) {
		t.Error("window should decay past its peak")
	}
}

func TestModuleApply(t *testing.T) {
	field, genes := moduleTestField(t)

	m := DevelopmentalModule{
		Name:      "WingDisc",
		Shape:     ShapePulse,
		Start:     0.3,
		End:       0.9,
		Threshold: 0.5,
		Morphogen: "Wingless",
		Amount:    0.2,
		Gene:      "WingAdhesionGene",
	}

	// Below threshold: nothing happens.
	before := field.AverageConcentration(0)
	if m.Apply(0.32, field, genes) {
		t.Error("activation barely above zero should not clear the threshold")
	}
	if field.AverageConcentration(0) != before {
		t.Error("field changed without firing")
	}

	// Mid-window the pulse clears the threshold and fires both arms.
	if !m.Apply(0.6, field, genes) {
		t.Fatal("mid-window pulse should fire")
	}
	if field.AverageConcentration(0) <= before {
		t.Error("firing should raise the morphogen")
	}
	if g, _ := genes.Gene("WingAdhesionGene"); !g.Expressed {
		t.Error("firing should force the linked gene on")
	}
}

func TestParseShape(t *testing.T) {
	for name, want := range map[string]ActivationShape{
		"ramp": ShapeRamp, "pulse": ShapePulse, "window": ShapeWindow,
	} {
		got, ok := ParseShape(name)
		if !ok || got != want {
			t.Errorf("ParseShape(%s) = %v, %v", name, got, ok)
		}
	}
	if _, ok := ParseShape("sawtooth"); ok {
		t.Error("unknown shape should not parse")
	}
}
