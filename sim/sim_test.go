package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/instar-sim/instar/bodyplan"
	"github.com/instar-sim/instar/components"
	"github.com/instar-sim/instar/config"
	"github.com/instar-sim/instar/engine"
	"github.com/instar-sim/instar/systems"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func newTestSim(t *testing.T) *Simulation {
	t.Helper()
	eng := engine.New(42, config.Cfg().Engine.MaxParticles)
	s, err := New(eng, Options{Seed: 42})
	if err != nil {
		t.Fatalf("building simulation: %v", err)
	}
	return s
}

func TestSimConstruction(t *testing.T) {
	s := newTestSim(t)

	if s.Tick() != 0 {
		t.Errorf("initial tick = %d", s.Tick())
	}
	if s.Stage() != systems.StageEgg {
		t.Errorf("initial stage = %v, want Egg", s.Stage())
	}
	if s.ParticleCount() == 0 {
		t.Error("construction should populate the engine")
	}
	if len(s.Segments()) == 0 {
		t.Error("construction should install the segment layout")
	}
}

func TestSimUpdateAdvances(t *testing.T) {
	s := newTestSim(t)

	for i := 0; i < 5; i++ {
		s.Update()
	}
	if s.Tick() != 5 {
		t.Errorf("tick = %d, want 5", s.Tick())
	}
	if s.Snapshot() == nil {
		t.Error("snapshot should be populated after an update")
	}
	if s.Age() <= 0 {
		t.Error("age should advance")
	}
}

func TestSimSetStageCommandIsDeferred(t *testing.T) {
	s := newTestSim(t)

	s.SetStage(systems.StagePupa)
	if s.Stage() != systems.StageEgg {
		t.Fatal("command must not apply before the next tick")
	}

	s.Update()
	if s.Stage() != systems.StagePupa {
		t.Errorf("stage = %v, want Pupa", s.Stage())
	}
}

func TestSimActivateMorphogenCommand(t *testing.T) {
	s := newTestSim(t)

	idx, ok := s.Field().Index("Wingless")
	if !ok {
		t.Fatal("defaults should declare Wingless")
	}
	before := s.Field().AverageConcentration(idx)

	s.ActivateMorphogen("Wingless", 10)
	s.Update()

	if after := s.Field().AverageConcentration(idx); after < before+5 {
		t.Errorf("activation barely moved the field: %f -> %f", before, after)
	}
}

func TestSimExpressGeneCommand(t *testing.T) {
	s := newTestSim(t)

	// Unknown names queue and then no-op without disturbing the tick.
	s.ExpressGene("NoSuchGene", true)
	s.Update()

	if s.Tick() != 1 {
		t.Errorf("tick = %d after a no-op command", s.Tick())
	}
}

func TestSimResetBeforeNextTick(t *testing.T) {
	s := newTestSim(t)
	for i := 0; i < 10; i++ {
		s.Update()
	}

	s.Reset()
	if s.Tick() != 10 {
		t.Fatal("reset must not apply before the next tick")
	}

	s.Update() // drain performs the reset, then the tick runs fresh
	if s.Tick() != 1 {
		t.Errorf("tick = %d, want 1 one tick after reset", s.Tick())
	}
	if s.Stage() != systems.StageEgg {
		t.Errorf("stage = %v, want Egg after reset", s.Stage())
	}
	if s.ParticleCount() == 0 {
		t.Error("reset should repopulate the engine")
	}
}

func TestSimResetMatchesFreshRun(t *testing.T) {
	fresh := newTestSim(t)
	fresh.Update()

	s := newTestSim(t)
	for i := 0; i < 50; i++ {
		s.Update()
	}
	s.Reset()
	s.Update()

	if s.Tick() != fresh.Tick() {
		t.Fatalf("tick = %d, fresh run = %d", s.Tick(), fresh.Tick())
	}
	want := fresh.Field().Averages()
	got := s.Field().Averages()
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("morphogen %d average = %f, fresh run = %f", i, got[i], want[i])
		}
	}
}

func TestSimSelectBodyPlan(t *testing.T) {
	s := newTestSim(t)
	for i := 0; i < 3; i++ {
		s.Update()
	}

	s.SelectBodyPlan(bodyplan.IdentityBeetle)
	s.Update()

	if s.Preset().Identity != bodyplan.IdentityBeetle {
		t.Errorf("identity = %v, want beetle", s.Preset().Identity)
	}
	if len(s.Segments()) != 10 {
		t.Errorf("segment count = %d, want 10", len(s.Segments()))
	}
	if s.Tick() != 1 {
		t.Errorf("tick = %d, body plan switch should fully reset", s.Tick())
	}
	if len(s.Assignment().Counts()) != 10 {
		t.Errorf("assignment buckets = %d, want 10", len(s.Assignment().Counts()))
	}
}

// countingEngine is a stub that tracks how often the simulation collects
// a particle snapshot.
type countingEngine struct {
	particles     []components.ParticleState
	snapshotCalls int
}

func (e *countingEngine) ApplyCellTypes([]systems.CellTypeDescriptor) {}
func (e *countingEngine) ApplyRules([]systems.InteractionRule, int)   {}
func (e *countingEngine) ApplyKinetics(systems.StageKinetics)         {}
func (e *countingEngine) SetBounds(mgl32.Vec3)                        {}
func (e *countingEngine) UpdateSpawnTarget(int, int)                  {}
func (e *countingEngine) Step(float32)                                {}
func (e *countingEngine) Reset()                                      {}
func (e *countingEngine) Count() int                                  { return len(e.particles) }
func (e *countingEngine) CountByType() []int                          { return []int{len(e.particles)} }

func (e *countingEngine) Snapshot() []components.ParticleState {
	e.snapshotCalls++
	return e.particles
}

func TestSimCollectsOneSnapshotPerTick(t *testing.T) {
	eng := &countingEngine{particles: []components.ParticleState{{TypeIndex: 0}}}
	s, err := New(eng, Options{Seed: 7})
	if err != nil {
		t.Fatalf("building simulation: %v", err)
	}

	for i := 0; i < 3; i++ {
		s.Update()
	}
	if eng.snapshotCalls != 3 {
		t.Errorf("snapshot collected %d times over 3 ticks, want 3", eng.snapshotCalls)
	}
}

func TestSimProgressDrivesModules(t *testing.T) {
	s := newTestSim(t)

	// Long run across Egg into Embryo: progress grows monotonically and
	// stays in range.
	prev := s.Progress()
	for i := 0; i < 600; i++ {
		s.Update()
		p := s.Progress()
		if p < prev || p > 1 {
			t.Fatalf("progress regressed or overflowed at tick %d: %f -> %f", i, prev, p)
		}
		prev = p
	}
	if s.Stage() == systems.StageEgg {
		t.Error("600 ticks should have left the egg stage")
	}
}
