package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/instar-sim/instar/components"
)

func TestProceduralSegmentsLayout(t *testing.T) {
	segs := ProceduralSegments(SegmentLayoutParams{
		HeadCount: 3, ThoraxCount: 3, AbdomenCount: 6,
		ThoraxMorphogens: []string{"Wingless"},
	})
	if len(segs) != 12 {
		t.Fatalf("expected 12 segments, got %d", len(segs))
	}

	// Positions are strictly increasing over (0,1).
	for i := 1; i < len(segs); i++ {
		if segs[i].RelativePosition <= segs[i-1].RelativePosition {
			t.Fatalf("segment %d position %f not after %f", i, segs[i].RelativePosition, segs[i-1].RelativePosition)
		}
	}
	if segs[0].RelativePosition <= 0 || segs[len(segs)-1].RelativePosition >= 1 {
		t.Error("positions should lie strictly inside (0,1)")
	}

	// Head segments are immutable; thorax carries appendages.
	for i := 0; i < 3; i++ {
		if segs[i].Mutable {
			t.Errorf("head segment %d should be immutable", i)
		}
		if segs[i].HasAppendages {
			t.Errorf("head segment %d should not bear appendages", i)
		}
	}
	for i := 3; i < 6; i++ {
		if !segs[i].HasAppendages {
			t.Errorf("thorax segment %d should bear appendages", i)
		}
	}

	// Thorax-local morphogens come from the layout params.
	found := false
	for _, m := range segs[4].LocalMorphogens {
		if m == "Wingless" {
			found = true
		}
	}
	if !found {
		t.Error("thorax segment missing its local morphogen")
	}
}

func TestCopyIdentityPreservesPosition(t *testing.T) {
	segs := ProceduralSegments(SegmentLayoutParams{HeadCount: 3, ThoraxCount: 3, AbdomenCount: 6})
	target, donor := &segs[7], &segs[4]

	wantPos := target.RelativePosition
	wantName := target.Name
	target.CopyIdentityFrom(donor)

	if target.RelativePosition != wantPos {
		t.Errorf("relative position moved: %f, want %f", target.RelativePosition, wantPos)
	}
	if target.Name != wantName {
		t.Errorf("name changed: %q, want %q", target.Name, wantName)
	}
	if target.HasAppendages != donor.HasAppendages {
		t.Error("appendage identity should transfer")
	}
	if len(target.AllowedCellTypes) != len(donor.AllowedCellTypes) {
		t.Error("allowed cell types should transfer")
	}
}

func TestSegmentAssignment(t *testing.T) {
	a := NewSegmentAssignment(mgl32.Vec3{1, 0, 0}, 10, 4)

	snapshot := []components.ParticleState{
		{Position: mgl32.Vec3{-4.9, 0, 0}, TypeIndex: 0}, // far anterior
		{Position: mgl32.Vec3{-1.0, 0, 0}, TypeIndex: 1},
		{Position: mgl32.Vec3{1.0, 0, 0}, TypeIndex: 2},
		{Position: mgl32.Vec3{4.9, 0, 0}, TypeIndex: 3},  // far posterior
		{Position: mgl32.Vec3{0, 0, 0}, TypeIndex: -1},   // inactive, skipped
		{Position: mgl32.Vec3{99, 0, 0}, TypeIndex: 0},   // beyond the body, clamps
	}
	a.Assign(snapshot)

	counts := a.Counts()
	if len(counts) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(counts))
	}
	if counts[0] != 1 || counts[1] != 1 || counts[2] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	// The outlier clamps into the last bucket alongside the posterior one.
	if counts[3] != 2 {
		t.Errorf("last bucket = %d, want 2 (clamped outlier)", counts[3])
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != 5 {
		t.Errorf("assigned %d particles, want 5 (inactive skipped)", total)
	}
}

func TestSegmentAssignmentRebuildsEachPass(t *testing.T) {
	a := NewSegmentAssignment(mgl32.Vec3{1, 0, 0}, 10, 2)

	a.Assign([]components.ParticleState{{Position: mgl32.Vec3{-2, 0, 0}, TypeIndex: 0}})
	a.Assign([]components.ParticleState{{Position: mgl32.Vec3{2, 0, 0}, TypeIndex: 0}})

	counts := a.Counts()
	if counts[0] != 0 || counts[1] != 1 {
		t.Errorf("stale buckets: %v", counts)
	}
}

func TestSegmentAssignmentResize(t *testing.T) {
	a := NewSegmentAssignment(mgl32.Vec3{1, 0, 0}, 10, 4)
	a.Resize(9)
	if len(a.Counts()) != 9 {
		t.Errorf("expected 9 buckets after resize, got %d", len(a.Counts()))
	}
}
