// Package sim owns the complete developmental simulation state and the
// fixed per-tick pipeline that drives it.
package sim

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/instar-sim/instar/bodyplan"
	"github.com/instar-sim/instar/components"
	"github.com/instar-sim/instar/config"
	"github.com/instar-sim/instar/storage"
	"github.com/instar-sim/instar/systems"
	"github.com/instar-sim/instar/telemetry"
)

// ParticleEngine is the surface the simulation drives each tick. The
// reference implementation lives in the engine package; tests substitute
// lighter fakes.
type ParticleEngine interface {
	ApplyCellTypes(types []systems.CellTypeDescriptor)
	ApplyRules(rules []systems.InteractionRule, n int)
	ApplyKinetics(k systems.StageKinetics)
	SetBounds(bounds mgl32.Vec3)
	UpdateSpawnTarget(typeIndex, count int)
	Step(dt float32)
	Snapshot() []components.ParticleState
	Reset()
	Count() int
	CountByType() []int
}

// Simulation is the root object: morphogen field, gene evaluator,
// interaction matrix, stage controller, segment model, body-plan
// transforms and the particle engine, advanced in a fixed order.
type Simulation struct {
	cfg *config.Config
	rng *rand.Rand

	catalog    *systems.CellCatalog
	field      *systems.MorphogenField
	genes      *systems.GeneEvaluator
	matrix     *systems.MatrixGenerator
	stages     *systems.StageController
	segments   []systems.BodySegment
	assignment *systems.SegmentAssignment
	evodevo    *bodyplan.EvoDevo
	modules    []bodyplan.DevelopmentalModule
	preset     bodyplan.Preset

	engine   ParticleEngine
	registry *systems.SystemRegistry

	collector *telemetry.Collector
	output    *telemetry.OutputManager
	store     *storage.Store
	logStats  bool

	seed int64
	tick int32

	pending []command

	// Expression flags from the previous evaluation, for flip detection.
	prevExpressed []bool

	lastStats    telemetry.WindowStats
	hasStats     bool
	lastSnapshot []components.ParticleState
}

// Options tunes construction beyond what config carries.
type Options struct {
	Seed     int64
	Output   *telemetry.OutputManager
	Store    *storage.Store
	LogStats bool
}

// New wires the simulation from the global config. Any dangling name
// reference in the config is a construction error, not a silent no-op.
func New(eng ParticleEngine, opts Options) (*Simulation, error) {
	cfg := config.Cfg()

	catalog, err := systems.NewCellCatalog()
	if err != nil {
		return nil, fmt.Errorf("building cell catalog: %w", err)
	}

	morphogens, err := buildMorphogens(cfg, catalog)
	if err != nil {
		return nil, err
	}

	field, err := systems.NewMorphogenField(morphogens,
		cfg.Field.ResX, cfg.Field.ResY, cfg.Field.ResZ,
		systems.FieldOptions{
			Seed:           opts.Seed,
			NoiseScale:     cfg.Field.NoiseScale,
			NoiseAmplitude: cfg.Field.NoiseAmplitude,
			Parallel:       cfg.Field.Parallel,
		})
	if err != nil {
		return nil, fmt.Errorf("building morphogen field: %w", err)
	}

	genes, err := buildGenes(cfg, catalog, field)
	if err != nil {
		return nil, err
	}

	matrix, err := buildMatrix(cfg, catalog)
	if err != nil {
		return nil, err
	}

	stages := systems.NewStageController(
		systems.StageThresholds{
			Egg:       cfg.Stages.Thresholds.Egg,
			Embryo:    cfg.Stages.Thresholds.Embryo,
			Larva:     cfg.Stages.Thresholds.Larva,
			Pupa:      cfg.Stages.Thresholds.Pupa,
			AdultFull: cfg.Stages.Thresholds.AdultFull,
		},
		kineticsTable(cfg))

	identity, err := bodyplan.ParseIdentity(cfg.BodyPlan.Identity)
	if err != nil {
		return nil, fmt.Errorf("resolving body plan: %w", err)
	}
	preset := bodyplan.PresetFor(identity, layoutParams(cfg))

	modules, err := buildModules(cfg, field, genes)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	evodevo := bodyplan.NewEvoDevo(rng,
		bodyplan.HomeoticParams{
			Rate:      cfg.BodyPlan.Homeotic.Rate,
			WindowMin: cfg.BodyPlan.Homeotic.WindowMin,
			WindowMax: cfg.BodyPlan.Homeotic.WindowMax,
		},
		bodyplan.HeterochronyParams{
			Factor:                cfg.BodyPlan.Heterochrony.Factor,
			Deadband:              cfg.BodyPlan.Heterochrony.Deadband,
			DivisionWeight:        cfg.BodyPlan.Heterochrony.DivisionWeight,
			DifferentiationWeight: cfg.BodyPlan.Heterochrony.DifferentiationWeight,
			MigrationWeight:       cfg.BodyPlan.Heterochrony.MigrationWeight,
			MinScale:              cfg.BodyPlan.Heterochrony.MinScale,
			MaxScale:              cfg.BodyPlan.Heterochrony.MaxScale,
		},
		bodyplan.AllometricParams{
			Step:      cfg.BodyPlan.Allometric.Step,
			Constrain: cfg.BodyPlan.Allometric.Constrain,
			MinSize:   cfg.BodyPlan.Allometric.MinSize,
			MaxSize:   cfg.BodyPlan.Allometric.MaxSize,
		})

	s := &Simulation{
		cfg:       cfg,
		rng:       rng,
		catalog:   catalog,
		field:     field,
		genes:     genes,
		matrix:    matrix,
		stages:    stages,
		evodevo:   evodevo,
		modules:   modules,
		engine:    eng,
		registry:  systems.NewSystemRegistry(),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
		output:    opts.Output,
		store:     opts.Store,
		logStats:  opts.LogStats,
		seed:      opts.Seed,
	}
	s.prevExpressed = make([]bool, len(genes.Genes()))
	s.installPreset(preset)
	s.primeEngine()

	return s, nil
}

// installPreset overwrites the segment sequence wholesale and rebuilds
// the axis assignment to match.
func (s *Simulation) installPreset(p bodyplan.Preset) {
	s.preset = p
	s.segments = p.Segments

	axis := mgl32.Vec3{
		float32(s.cfg.Body.Axis[0]),
		float32(s.cfg.Body.Axis[1]),
		float32(s.cfg.Body.Axis[2]),
	}
	s.assignment = systems.NewSegmentAssignment(axis, p.BodyLength, len(p.Segments))
}

// primeEngine pushes the full initial state onto the particle engine.
func (s *Simulation) primeEngine() {
	s.engine.SetBounds(mgl32.Vec3{
		float32(s.preset.BodyLength),
		float32(s.preset.BodyWidth),
		float32(s.preset.BodyHeight),
	})
	s.engine.ApplyCellTypes(s.catalog.Descriptors(s.cfg.Engine.PopulationScale))
	s.engine.ApplyKinetics(s.stages.Kinetics())
	s.engine.ApplyRules(s.matrix.Rules(), s.catalog.Len())
}

func buildMorphogens(cfg *config.Config, catalog *systems.CellCatalog) ([]systems.Morphogen, error) {
	out := make([]systems.Morphogen, 0, len(cfg.Morphogens))
	for _, mc := range cfg.Morphogens {
		gradient, err := parseGradient(mc.Gradient)
		if err != nil {
			return nil, fmt.Errorf("morphogen %q: %w", mc.Name, err)
		}
		targets, err := catalog.ResolveNames(mc.Targets)
		if err != nil {
			return nil, fmt.Errorf("morphogen %q targets: %w", mc.Name, err)
		}
		out = append(out, systems.Morphogen{
			Name:          mc.Name,
			DiffusionRate: mc.DiffusionRate,
			DecayRate:     mc.DecayRate,
			Baseline:      mc.Baseline,
			Gradient:      gradient,
			Targets:       targets,
			Active:        true,
		})
	}
	return out, nil
}

func parseGradient(name string) (systems.GradientKind, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return systems.GradientNone, nil
	case "anterior":
		return systems.GradientAnterior, nil
	case "posterior":
		return systems.GradientPosterior, nil
	default:
		return systems.GradientNone, fmt.Errorf("unknown gradient %q", name)
	}
}

func buildGenes(cfg *config.Config, catalog *systems.CellCatalog, field *systems.MorphogenField) (*systems.GeneEvaluator, error) {
	list := make([]systems.Gene, 0, len(cfg.Genes))
	for _, gc := range cfg.Genes {
		activators, err := resolveMorphogens(field, gc.Activators)
		if err != nil {
			return nil, fmt.Errorf("gene %q activators: %w", gc.Name, err)
		}
		repressors, err := resolveMorphogens(field, gc.Repressors)
		if err != nil {
			return nil, fmt.Errorf("gene %q repressors: %w", gc.Name, err)
		}
		results, err := catalog.ResolveNames(gc.Results)
		if err != nil {
			return nil, fmt.Errorf("gene %q results: %w", gc.Name, err)
		}
		list = append(list, systems.Gene{
			Name:       gc.Name,
			Threshold:  gc.Threshold,
			Activators: activators,
			Repressors: repressors,
			Results:    results,
			Effect:     systems.GeneEffectFromName(gc.Name),
		})
	}
	return systems.NewGeneEvaluator(list)
}

func resolveMorphogens(field *systems.MorphogenField, names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, n := range names {
		i, ok := field.Index(n)
		if !ok {
			return nil, fmt.Errorf("unknown morphogen %q", n)
		}
		out = append(out, i)
	}
	return out, nil
}

func buildMatrix(cfg *config.Config, catalog *systems.CellCatalog) (*systems.MatrixGenerator, error) {
	pairs := make([]systems.PairAffinity, 0, len(cfg.Interact.PairRules))
	for _, pr := range cfg.Interact.PairRules {
		a, ok := catalog.ByName(pr.A)
		if !ok {
			return nil, fmt.Errorf("pair rule: unknown cell type %q", pr.A)
		}
		b, ok := catalog.ByName(pr.B)
		if !ok {
			return nil, fmt.Errorf("pair rule: unknown cell type %q", pr.B)
		}
		pairs = append(pairs, systems.PairAffinity{A: a, B: b, Value: pr.Value})
	}
	return systems.NewMatrixGenerator(catalog, systems.MatrixParams{
		DefaultAttraction:  cfg.Interact.DefaultAttraction,
		StemAttraction:     cfg.Interact.StemAttraction,
		HemolymphRepulsion: cfg.Interact.HemolymphRepulsion,
		PairRules:          pairs,
	}), nil
}

func kineticsTable(cfg *config.Config) [systems.NumStages]systems.StageKinetics {
	conv := func(k config.StageKineticsConfig) systems.StageKinetics {
		return systems.StageKinetics{
			InteractionStrength: k.InteractionStrength,
			Dampening:           k.Dampening,
			InteractionRadius:   k.InteractionRadius,
			DivisionRate:        k.DivisionRate,
			DifferentiationRate: k.DifferentiationRate,
			MigrationRate:       k.MigrationRate,
			BoundsScale:         k.BoundsScale,
		}
	}
	return [systems.NumStages]systems.StageKinetics{
		systems.StageEgg:    conv(cfg.Stages.Egg),
		systems.StageEmbryo: conv(cfg.Stages.Embryo),
		systems.StageLarva:  conv(cfg.Stages.Larva),
		systems.StagePupa:   conv(cfg.Stages.Pupa),
		systems.StageAdult:  conv(cfg.Stages.Adult),
	}
}

func layoutParams(cfg *config.Config) systems.SegmentLayoutParams {
	return systems.SegmentLayoutParams{
		ThoraxMorphogens:  cfg.Segments.ThoraxMorphogens,
		AbdomenMorphogens: cfg.Segments.AbdomenMorphogens,
	}
}

func buildModules(cfg *config.Config, field *systems.MorphogenField, genes *systems.GeneEvaluator) ([]bodyplan.DevelopmentalModule, error) {
	out := make([]bodyplan.DevelopmentalModule, 0, len(cfg.BodyPlan.Modules))
	for _, mc := range cfg.BodyPlan.Modules {
		shape, ok := bodyplan.ParseShape(mc.Shape)
		if !ok {
			return nil, fmt.Errorf("module %q: unknown shape %q", mc.Name, mc.Shape)
		}
		if _, ok := field.Index(mc.Morphogen); !ok {
			return nil, fmt.Errorf("module %q: unknown morphogen %q", mc.Name, mc.Morphogen)
		}
		if mc.Gene != "" {
			if _, ok := genes.Gene(mc.Gene); !ok {
				return nil, fmt.Errorf("module %q: unknown gene %q", mc.Name, mc.Gene)
			}
		}
		out = append(out, bodyplan.DevelopmentalModule{
			Name:      mc.Name,
			Shape:     shape,
			Start:     mc.Start,
			End:       mc.End,
			Threshold: mc.Threshold,
			Morphogen: mc.Morphogen,
			Amount:    mc.Amount,
			Gene:      mc.Gene,
		})
	}
	return out, nil
}

// Accessors for the renderer and tooling. All return live state; callers
// must not mutate.

func (s *Simulation) Tick() int32                            { return s.tick }
func (s *Simulation) Stage() systems.Stage                   { return s.stages.Stage() }
func (s *Simulation) Age() float64                           { return s.stages.Age() }
func (s *Simulation) Progress() float64                      { return s.stages.CalculateProgress() }
func (s *Simulation) Field() *systems.MorphogenField         { return s.field }
func (s *Simulation) Genes() *systems.GeneEvaluator          { return s.genes }
func (s *Simulation) Matrix() *systems.MatrixGenerator       { return s.matrix }
func (s *Simulation) Catalog() *systems.CellCatalog          { return s.catalog }
func (s *Simulation) Segments() []systems.BodySegment        { return s.segments }
func (s *Simulation) Assignment() *systems.SegmentAssignment { return s.assignment }
func (s *Simulation) Preset() bodyplan.Preset                { return s.preset }
func (s *Simulation) ParticleCount() int                     { return s.engine.Count() }
func (s *Simulation) Registry() *systems.SystemRegistry      { return s.registry }

// Snapshot returns the particle states captured on the last tick, or nil
// before the first step.
func (s *Simulation) Snapshot() []components.ParticleState { return s.lastSnapshot }

// LastStats returns the most recently flushed window stats.
func (s *Simulation) LastStats() (telemetry.WindowStats, bool) {
	return s.lastStats, s.hasStats
}
