package sim

import (
	"log/slog"

	"github.com/instar-sim/instar/bodyplan"
	"github.com/instar-sim/instar/systems"
	"github.com/instar-sim/instar/telemetry"
)

// commandKind discriminates queued control commands.
type commandKind uint8

const (
	cmdSetStage commandKind = iota
	cmdActivateMorphogen
	cmdExpressGene
	cmdSelectBodyPlan
	cmdReset
)

// command is one queued control operation. Commands are drained at the
// start of the next tick so mid-tick state never mixes.
type command struct {
	kind     commandKind
	stage    systems.Stage
	name     string
	amount   float64
	on       bool
	identity bodyplan.Identity
}

// SetStage queues a forced stage transition.
func (s *Simulation) SetStage(st systems.Stage) {
	s.pending = append(s.pending, command{kind: cmdSetStage, stage: st})
}

// ActivateMorphogen queues a uniform concentration boost.
func (s *Simulation) ActivateMorphogen(name string, amount float64) {
	s.pending = append(s.pending, command{kind: cmdActivateMorphogen, name: name, amount: amount})
}

// ExpressGene queues a forced expression override.
func (s *Simulation) ExpressGene(name string, on bool) {
	s.pending = append(s.pending, command{kind: cmdExpressGene, name: name, on: on})
}

// SelectBodyPlan queues an atomic preset overwrite followed by a full
// reset.
func (s *Simulation) SelectBodyPlan(id bodyplan.Identity) {
	s.pending = append(s.pending, command{kind: cmdSelectBodyPlan, identity: id})
}

// Reset queues a total reinitialization. The drain runs it before the
// next tick touches the field or the engine, so one tick after Reset the
// run is indistinguishable from a fresh start.
func (s *Simulation) Reset() {
	s.pending = append(s.pending, command{kind: cmdReset})
}

// drainCommands applies every queued command in arrival order.
func (s *Simulation) drainCommands() {
	for _, c := range s.pending {
		s.applyCommand(c)
	}
	s.pending = s.pending[:0]
}

func (s *Simulation) applyCommand(c command) {
	switch c.kind {
	case cmdSetStage:
		from := s.stages.Stage()
		s.stages.SetStage(c.stage)
		s.engine.ApplyKinetics(s.stages.Kinetics())
		s.collector.RecordStageTransition()
		s.recordEvent(telemetry.NewStageTransitionEvent(
			s.tick, s.stages.Age(), from.String(), c.stage.String()))

	case cmdActivateMorphogen:
		s.field.Activate(c.name, c.amount)
		s.collector.RecordMorphogenPulse()
		s.recordEvent(telemetry.NewMorphogenPulseEvent(
			s.tick, s.stages.Age(), c.name, c.amount))

	case cmdExpressGene:
		s.genes.Express(c.name, c.on)
		s.collector.RecordGeneFlip()
		s.recordEvent(telemetry.NewGeneFlipEvent(
			s.tick, s.stages.Age(), c.name, c.on))

	case cmdSelectBodyPlan:
		s.installPreset(bodyplan.PresetFor(c.identity, layoutParams(s.cfg)))
		s.recordEvent(telemetry.NewBodyPlanSelectEvent(
			s.tick, s.stages.Age(), c.identity.String()))
		s.doReset()

	case cmdReset:
		s.doReset()
	}
}

// doReset reinitializes every subsystem. The segment sequence comes from
// the installed preset, so a preceding body-plan switch survives.
func (s *Simulation) doReset() {
	slog.Info("simulation reset", "tick", s.tick, "bodyplan", s.preset.Identity.String())
	s.recordEvent(telemetry.NewResetEvent(s.tick))

	s.field.Reset()
	s.matrix.Reset()
	s.stages.Reset()
	s.installPreset(bodyplan.PresetFor(s.preset.Identity, layoutParams(s.cfg)))

	s.engine.Reset()
	s.primeEngine()

	s.collector.Reset()
	for i := range s.prevExpressed {
		s.prevExpressed[i] = false
	}
	s.lastSnapshot = nil
	s.tick = 0
}
