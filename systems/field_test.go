package systems

import (
	"math"
	"testing"
)

func testMorphogens() []Morphogen {
	return []Morphogen{
		{Name: "Bicoid", DiffusionRate: 0.8, DecayRate: 0.05, Baseline: 1.0, Gradient: GradientAnterior, Active: true},
		{Name: "Nanos", DiffusionRate: 0.8, DecayRate: 0.05, Baseline: 1.0, Gradient: GradientPosterior, Active: true},
		{Name: "Ecdysone", DiffusionRate: 0, DecayRate: 0.1, Baseline: 0.4, Active: true},
	}
}

func TestFieldCreation(t *testing.T) {
	f, err := NewMorphogenField(testMorphogens(), 16, 8, 8, FieldOptions{Seed: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.NumMorphogens() != 3 {
		t.Errorf("expected 3 morphogens, got %d", f.NumMorphogens())
	}

	if _, err := NewMorphogenField(nil, 16, 8, 8, FieldOptions{}); err == nil {
		t.Error("expected error for empty morphogen list")
	}
	if _, err := NewMorphogenField(testMorphogens(), 0, 8, 8, FieldOptions{}); err == nil {
		t.Error("expected error for zero resolution")
	}
}

func TestFieldMaternalGradients(t *testing.T) {
	f, err := NewMorphogenField(testMorphogens(), 16, 4, 4, FieldOptions{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}

	// Anterior gradient peaks at x=0, posterior at x=max.
	bi, _ := f.Index("Bicoid")
	na, _ := f.Index("Nanos")

	if f.Concentration(bi, 0, 2, 2) <= f.Concentration(bi, 15, 2, 2) {
		t.Error("anterior gradient should decrease along the axis")
	}
	if f.Concentration(na, 0, 2, 2) >= f.Concentration(na, 15, 2, 2) {
		t.Error("posterior gradient should increase along the axis")
	}

	// Anterior endpoint carries double the baseline.
	if got := f.Concentration(bi, 0, 0, 0); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("anterior head concentration = %f, want 2.0", got)
	}
}

func TestFieldStationaryMorphogenSkipsDiffusion(t *testing.T) {
	f, err := NewMorphogenField(testMorphogens(), 8, 4, 4, FieldOptions{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	ec, _ := f.Index("Ecdysone")

	before := f.Sum(ec)
	for i := 0; i < 100; i++ {
		f.Diffuse(0.016)
	}
	after := f.Sum(ec)

	// Zero diffusion rate opts the morphogen out of the sweep entirely,
	// decay included.
	if before != after {
		t.Errorf("stationary morphogen changed: %f -> %f", before, after)
	}
}

func TestFieldUniformDecay(t *testing.T) {
	morphs := []Morphogen{
		{Name: "Flat", DiffusionRate: 0.5, DecayRate: 0.1, Baseline: 1.0, Active: true},
	}
	f, err := NewMorphogenField(morphs, 8, 8, 8, FieldOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// A uniform grid has avg == c everywhere, so one step is pure decay.
	dt := 0.5
	before := f.AverageConcentration(0)
	f.Diffuse(dt)
	after := f.AverageConcentration(0)

	want := before * (1 - 0.1*dt)
	if math.Abs(after-want) > 1e-9 {
		t.Errorf("uniform decay: got %f, want %f", after, want)
	}
}

func TestFieldDiffusionSmoothsGradient(t *testing.T) {
	morphs := []Morphogen{
		{Name: "Steep", DiffusionRate: 1.0, DecayRate: 0, Baseline: 1.0, Gradient: GradientAnterior, Active: true},
	}
	f, err := NewMorphogenField(morphs, 16, 4, 4, FieldOptions{})
	if err != nil {
		t.Fatal(err)
	}

	headBefore := f.Concentration(0, 0, 2, 2)
	tailBefore := f.Concentration(0, 15, 2, 2)
	for i := 0; i < 200; i++ {
		f.Diffuse(0.016)
	}
	headAfter := f.Concentration(0, 0, 2, 2)
	tailAfter := f.Concentration(0, 15, 2, 2)

	if headAfter >= headBefore {
		t.Error("diffusion should pull the peak down")
	}
	if tailAfter <= tailBefore {
		t.Error("diffusion should fill the trough")
	}
}

func TestFieldInteriorMassConservation(t *testing.T) {
	morphs := []Morphogen{
		{Name: "Pulse", DiffusionRate: 0.6, DecayRate: 0, Baseline: 0, Active: true},
	}
	f, err := NewMorphogenField(morphs, 16, 16, 16, FieldOptions{})
	if err != nil {
		t.Fatal(err)
	}
	f.SetConcentration(0, 8, 8, 8, 5.0)

	// With zero decay a spike far from the boundary only redistributes:
	// every unit a cell sheds lands in a neighbor.
	before := f.Sum(0)
	for i := 0; i < 5; i++ {
		f.Diffuse(0.1)
	}
	after := f.Sum(0)

	if math.Abs(after-before) > 1e-9 {
		t.Errorf("interior mass drifted: %f -> %f", before, after)
	}
}

func TestFieldActivate(t *testing.T) {
	f, err := NewMorphogenField(testMorphogens(), 8, 4, 4, FieldOptions{Seed: 7})
	if err != nil {
		t.Fatal(err)
	}

	before := f.AverageConcentration(0)
	f.Activate("Bicoid", 0.25)
	after := f.AverageConcentration(0)

	if math.Abs(after-before-0.25) > 1e-9 {
		t.Errorf("uniform activation: avg moved by %f, want 0.25", after-before)
	}

	// Unknown names are ignored without disturbing any grid.
	sums := make([]float64, f.NumMorphogens())
	for i := range sums {
		sums[i] = f.Sum(i)
	}
	f.Activate("NoSuchSignal", 5.0)
	for i := range sums {
		if f.Sum(i) != sums[i] {
			t.Errorf("unknown activation changed morphogen %d", i)
		}
	}
}

func TestFieldInjectSegments(t *testing.T) {
	f, err := NewMorphogenField(testMorphogens(), 32, 4, 4, FieldOptions{})
	if err != nil {
		t.Fatal(err)
	}

	segs := []BodySegment{
		{Name: "Prothorax", RelativePosition: 0.25, Size: 0.05, LocalMorphogens: []string{"Bicoid"}},
		{Name: "Ghost", RelativePosition: 0.75, Size: 0.05, LocalMorphogens: []string{"NoSuchSignal"}},
	}

	bi, _ := f.Index("Bicoid")
	before := f.Sum(bi)
	f.InjectSegments(segs, 0.5, 0.016)
	if f.Sum(bi) <= before {
		t.Error("segment injection should raise local concentration")
	}

	// The injection is centered on the segment.
	cx := int(0.25 * 32)
	edge := f.Concentration(bi, 31, 2, 2)
	center := f.Concentration(bi, cx, 2, 2)
	if center <= edge {
		t.Error("injection should be strongest at the segment center")
	}
}

func TestFieldResetRestoresInitialState(t *testing.T) {
	f, err := NewMorphogenField(testMorphogens(), 8, 4, 4, FieldOptions{Seed: 9, NoiseScale: 2, NoiseAmplitude: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	initial := f.Averages()
	f.Activate("Bicoid", 1.0)
	for i := 0; i < 10; i++ {
		f.Diffuse(0.016)
	}
	f.Reset()

	restored := f.Averages()
	for i := range initial {
		if math.Abs(initial[i]-restored[i]) > 1e-9 {
			t.Errorf("morphogen %d: reset gave %f, want %f", i, restored[i], initial[i])
		}
	}
}

func TestFieldParallelMatchesSerial(t *testing.T) {
	serial, err := NewMorphogenField(testMorphogens(), 16, 8, 8, FieldOptions{Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := NewMorphogenField(testMorphogens(), 16, 8, 8, FieldOptions{Seed: 3, Parallel: true})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		serial.Diffuse(0.016)
		parallel.Diffuse(0.016)
	}

	for gi := 0; gi < serial.NumMorphogens(); gi++ {
		if math.Abs(serial.Sum(gi)-parallel.Sum(gi)) > 1e-9 {
			t.Errorf("morphogen %d: parallel diverged from serial", gi)
		}
	}
}
