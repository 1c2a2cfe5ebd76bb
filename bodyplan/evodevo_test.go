package bodyplan

import (
	"math/rand"
	"testing"

	"github.com/instar-sim/instar/systems"
)

func testSegments() []systems.BodySegment {
	return systems.ProceduralSegments(systems.SegmentLayoutParams{
		HeadCount: 3, ThoraxCount: 3, AbdomenCount: 6,
	})
}

func newTestEvoDevo(h HomeoticParams, het HeterochronyParams, al AllometricParams) *EvoDevo {
	return NewEvoDevo(rand.New(rand.NewSource(7)), h, het, al)
}

func TestHomeoticOutsideWindowNeverFires(t *testing.T) {
	e := newTestEvoDevo(HomeoticParams{Rate: 1000, WindowMin: 0.3, WindowMax: 0.7},
		HeterochronyParams{}, AllometricParams{})
	segs := testSegments()

	for _, progress := range []float64{0.0, 0.3, 0.7, 1.0} {
		for i := 0; i < 100; i++ {
			if _, _, ok := e.ApplyHomeotic(segs, progress, 1.0); ok {
				t.Fatalf("fired at progress %f, outside the exclusive window", progress)
			}
		}
	}
}

func TestHomeoticSwapTargetsMutableSegments(t *testing.T) {
	// Rate*dt >= 1 makes the roll deterministic.
	e := newTestEvoDevo(HomeoticParams{Rate: 1, WindowMin: 0.3, WindowMax: 0.7},
		HeterochronyParams{}, AllometricParams{})

	for i := 0; i < 200; i++ {
		segs := testSegments()
		positions := make([]float64, len(segs))
		for j := range segs {
			positions[j] = segs[j].RelativePosition
		}

		target, donor, ok := e.ApplyHomeotic(segs, 0.5, 1.0)
		if !ok {
			t.Fatal("deterministic roll should always fire")
		}
		if target < 3 {
			t.Fatalf("swap hit head segment %d", target)
		}
		if donor != target-1 && donor != target+1 {
			t.Fatalf("donor %d is not adjacent to target %d", donor, target)
		}
		for j := range segs {
			if segs[j].RelativePosition != positions[j] {
				t.Fatalf("segment %d moved during the swap", j)
			}
		}
	}
}

func TestHomeoticNoMutableSegments(t *testing.T) {
	e := newTestEvoDevo(HomeoticParams{Rate: 1, WindowMin: 0.3, WindowMax: 0.7},
		HeterochronyParams{}, AllometricParams{})
	segs := systems.ProceduralSegments(systems.SegmentLayoutParams{HeadCount: 3})

	if _, _, ok := e.ApplyHomeotic(segs, 0.5, 1.0); ok {
		t.Error("all-immutable body must never transform")
	}
}

func TestHeterochronyDeadband(t *testing.T) {
	het := HeterochronyParams{
		Factor: 0.05, Deadband: 0.1,
		DivisionWeight: 1, DifferentiationWeight: 1, MigrationWeight: 1,
		MinScale: 0.5, MaxScale: 2.0,
	}
	e := newTestEvoDevo(HomeoticParams{}, het, AllometricParams{})

	ctrl := testStageControllerForEvoDevo()
	ctrl.Advance(0.1)
	before := ctrl.Rates

	e.ApplyHeterochrony(ctrl)
	if ctrl.Rates != before {
		t.Error("factor inside the deadband must leave rates untouched")
	}
}

func TestHeterochronyScalesAndClamps(t *testing.T) {
	het := HeterochronyParams{
		Factor: 0.5, Deadband: 0.05,
		DivisionWeight: 1, DifferentiationWeight: 0.4, MigrationWeight: 10,
		MinScale: 0.5, MaxScale: 1.4,
	}
	e := newTestEvoDevo(HomeoticParams{}, het, AllometricParams{})

	ctrl := testStageControllerForEvoDevo()
	ctrl.Advance(0.1)
	before := ctrl.Rates

	e.ApplyHeterochrony(ctrl)

	// division: 1 + 0.5*1 = 1.5, clamped to 1.4
	if got, want := ctrl.Rates.Division, before.Division*1.4; !almostEqual(got, want) {
		t.Errorf("division = %f, want %f", got, want)
	}
	// differentiation: 1 + 0.5*0.4 = 1.2, inside the clamp range
	if got, want := ctrl.Rates.Differentiation, before.Differentiation*1.2; !almostEqual(got, want) {
		t.Errorf("differentiation = %f, want %f", got, want)
	}
	// migration: 1 + 0.5*10 = 6, clamped to 1.4
	if got, want := ctrl.Rates.Migration, before.Migration*1.4; !almostEqual(got, want) {
		t.Errorf("migration = %f, want %f", got, want)
	}
}

func TestAllometricStageGating(t *testing.T) {
	al := AllometricParams{Step: 0.1}
	e := newTestEvoDevo(HomeoticParams{}, HeterochronyParams{}, al)
	growth := []GrowthRange{{FromFrac: 0, ToFrac: 1, Weight: 1}}

	for _, stage := range []systems.Stage{systems.StageEgg, systems.StagePupa, systems.StageAdult} {
		segs := testSegments()
		before := segs[0].Size
		e.ApplyAllometric(segs, growth, stage, 1.0)
		if segs[0].Size != before {
			t.Errorf("stage %v: size changed outside the growth stages", stage)
		}
	}

	for _, stage := range []systems.Stage{systems.StageEmbryo, systems.StageLarva} {
		segs := testSegments()
		before := segs[0].Size
		e.ApplyAllometric(segs, growth, stage, 1.0)
		if !almostEqual(segs[0].Size, before+0.1) {
			t.Errorf("stage %v: size = %f, want %f", stage, segs[0].Size, before+0.1)
		}
	}
}

func TestAllometricRangesAndClamp(t *testing.T) {
	al := AllometricParams{Step: 1.0, Constrain: true, MinSize: 0.01, MaxSize: 0.1}
	e := newTestEvoDevo(HomeoticParams{}, HeterochronyParams{}, al)

	segs := testSegments() // 12 segments
	growth := []GrowthRange{
		{FromFrac: 0.0, ToFrac: 0.25, Weight: 1},  // segments 0..2 grow
		{FromFrac: 0.75, ToFrac: 1.0, Weight: -1}, // segments 9..11 shrink
	}
	e.ApplyAllometric(segs, growth, systems.StageLarva, 1.0)

	if segs[0].Size != 0.1 {
		t.Errorf("grown segment clamped to %f, want 0.1", segs[0].Size)
	}
	if segs[11].Size != 0.01 {
		t.Errorf("shrunk segment clamped to %f, want 0.01", segs[11].Size)
	}
	// Middle segments are outside both ranges.
	if got, want := segs[5].Size, 1.0/24; !almostEqual(got, want) {
		t.Errorf("untouched segment = %f, want %f", got, want)
	}
}

func testStageControllerForEvoDevo() *systems.StageController {
	var kinetics [systems.NumStages]systems.StageKinetics
	for s := systems.StageEgg; s < systems.NumStages; s++ {
		kinetics[s] = systems.StageKinetics{DivisionRate: 0.5, DifferentiationRate: 0.4, MigrationRate: 0.3}
	}
	return systems.NewStageController(
		systems.StageThresholds{Egg: 10, Embryo: 30, Larva: 60, Pupa: 90, AdultFull: 120},
		kinetics)
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
