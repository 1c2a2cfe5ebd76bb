package sim

import (
	"github.com/instar-sim/instar/systems"
	"github.com/instar-sim/instar/telemetry"
)

// Update advances the simulation by one tick. The phase order is fixed:
// queued commands, stage clock, field chemistry, gene expression, matrix
// regeneration, particle physics, segment assignment, body-plan
// transforms, telemetry.
func (s *Simulation) Update() {
	dt := s.cfg.Physics.DT

	s.drainCommands()

	// Stage clock. Advance resets the tick's rates from the stage bundle;
	// heterochrony then rescales them before anything consumes them.
	if s.stages.Advance(dt) {
		s.collector.RecordStageTransition()
		s.recordEvent(telemetry.NewStageTransitionEvent(
			s.tick, s.stages.Age(), "", s.stages.Stage().String()))
	}
	s.evodevo.ApplyHeterochrony(s.stages)
	s.engine.ApplyKinetics(s.kineticsWithRates())

	// Field chemistry.
	s.field.Diffuse(dt)
	s.field.InjectSegments(s.segments, s.cfg.Segments.LocalConcentration, dt)

	// Gene expression.
	s.genes.Evaluate(s.field)
	s.noteGeneFlips()

	// Matrix regeneration only runs against a live particle population;
	// with nothing spawned there is nothing for new rules to act on.
	if s.engine.Count() > 0 {
		if s.matrix.Regenerate(s.genes.Genes()) {
			s.engine.ApplyRules(s.matrix.Rules(), s.catalog.Len())
			s.collector.RecordMatrixRebuild()
			s.recordEvent(telemetry.NewMatrixRebuildEvent(
				s.tick, s.stages.Age(), s.genes.ExpressedCount()))
		}
	}

	// Particle physics and segment assignment.
	s.engine.Step(s.cfg.Derived.DT32)
	s.lastSnapshot = s.engine.Snapshot()
	if s.lastSnapshot != nil {
		s.assignment.Assign(s.lastSnapshot)
	}

	// Body-plan transforms.
	progress := s.stages.CalculateProgress()
	for i := range s.modules {
		if s.modules[i].Apply(progress, s.field, s.genes) {
			s.collector.RecordMorphogenPulse()
			s.recordEvent(telemetry.NewMorphogenPulseEvent(
				s.tick, s.stages.Age(), s.modules[i].Morphogen, s.modules[i].Amount))
		}
	}
	if target, donor, ok := s.evodevo.ApplyHomeotic(s.segments, progress, dt); ok {
		s.collector.RecordHomeoticSwap()
		s.recordEvent(telemetry.NewHomeoticSwapEvent(
			s.tick, s.stages.Age(), s.segments[target].Name, s.segments[donor].Name))
	}
	s.evodevo.ApplyAllometric(s.segments, s.preset.Growth, s.stages.Stage(), dt)

	s.tick++
	s.flushTelemetry()
}

// kineticsWithRates merges the stage kinetic bundle with the tick's
// possibly heterochrony-shifted rates.
func (s *Simulation) kineticsWithRates() systems.StageKinetics {
	k := s.stages.Kinetics()
	k.DivisionRate = s.stages.Rates.Division
	k.DifferentiationRate = s.stages.Rates.Differentiation
	k.MigrationRate = s.stages.Rates.Migration
	return k
}

// noteGeneFlips compares expression flags against the previous tick.
func (s *Simulation) noteGeneFlips() {
	genes := s.genes.Genes()
	for i := range genes {
		if genes[i].Expressed != s.prevExpressed[i] {
			s.collector.RecordGeneFlip()
			s.recordEvent(telemetry.NewGeneFlipEvent(
				s.tick, s.stages.Age(), genes[i].Name, genes[i].Expressed))
			s.prevExpressed[i] = genes[i].Expressed
		}
	}
}
