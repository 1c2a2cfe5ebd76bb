// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig      `yaml:"screen"`
	Physics    PhysicsConfig     `yaml:"physics"`
	Field      FieldConfig       `yaml:"field"`
	Body       BodyConfig        `yaml:"body"`
	Morphogens []MorphogenConfig `yaml:"morphogens"`
	Genes      []GeneConfig      `yaml:"genes"`
	Interact   InteractConfig    `yaml:"interactions"`
	Stages     StagesConfig      `yaml:"stages"`
	Segments   SegmentsConfig    `yaml:"segments"`
	BodyPlan   BodyPlanConfig    `yaml:"bodyplan"`
	Engine     EngineConfig      `yaml:"engine"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the graphical mode.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds the simulation clock parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// FieldConfig holds morphogen field grid parameters.
type FieldConfig struct {
	ResX           int     `yaml:"res_x"`
	ResY           int     `yaml:"res_y"`
	ResZ           int     `yaml:"res_z"`
	Parallel       bool    `yaml:"parallel"`        // diffuse morphogens on worker goroutines
	NoiseScale     float64 `yaml:"noise_scale"`     // opensimplex frequency for initial heterogeneity
	NoiseAmplitude float64 `yaml:"noise_amplitude"` // 0 disables the initial perturbation
}

// BodyConfig holds body-space dimensions and the anterior-posterior axis.
type BodyConfig struct {
	Length float64    `yaml:"length"`
	Width  float64    `yaml:"width"`
	Height float64    `yaml:"height"`
	Axis   [3]float64 `yaml:"axis"`
}

// MorphogenConfig declares one diffusible signal.
type MorphogenConfig struct {
	Name          string   `yaml:"name"`
	DiffusionRate float64  `yaml:"diffusion_rate"`
	DecayRate     float64  `yaml:"decay_rate"`
	Baseline      float64  `yaml:"baseline"`
	Gradient      string   `yaml:"gradient"` // "", "anterior", "posterior"
	Targets       []string `yaml:"targets"`  // cell type names, resolved at wiring time
}

// GeneConfig declares one boolean-expressed regulatory gene.
type GeneConfig struct {
	Name       string   `yaml:"name"`
	Threshold  float64  `yaml:"threshold"`
	Activators []string `yaml:"activators"`
	Repressors []string `yaml:"repressors"`
	Results    []string `yaml:"results"` // cell type names
}

// PairRuleConfig declares a symmetric base affinity between two cell types.
type PairRuleConfig struct {
	A     string  `yaml:"a"`
	B     string  `yaml:"b"`
	Value float64 `yaml:"value"`
}

// InteractConfig holds the base biological rule table parameters.
type InteractConfig struct {
	DefaultAttraction  float64          `yaml:"default_attraction"`
	StemAttraction     float64          `yaml:"stem_attraction"`
	HemolymphRepulsion float64          `yaml:"hemolymph_repulsion"`
	PairRules          []PairRuleConfig `yaml:"pair_rules"`
}

// StageKineticsConfig holds one developmental stage's kinetic bundle.
type StageKineticsConfig struct {
	InteractionStrength float64 `yaml:"interaction_strength"`
	Dampening           float64 `yaml:"dampening"`
	InteractionRadius   float64 `yaml:"interaction_radius"`
	DivisionRate        float64 `yaml:"division_rate"`
	DifferentiationRate float64 `yaml:"differentiation_rate"`
	MigrationRate       float64 `yaml:"migration_rate"`
	BoundsScale         float64 `yaml:"bounds_scale"`
}

// StageThresholdsConfig holds the age cutoffs between stages.
type StageThresholdsConfig struct {
	Egg       float64 `yaml:"egg"`
	Embryo    float64 `yaml:"embryo"`
	Larva     float64 `yaml:"larva"`
	Pupa      float64 `yaml:"pupa"`
	AdultFull float64 `yaml:"adult_full"` // age at which progress saturates to 1
}

// StagesConfig holds the full stage table.
type StagesConfig struct {
	Thresholds StageThresholdsConfig `yaml:"thresholds"`
	Egg        StageKineticsConfig   `yaml:"egg"`
	Embryo     StageKineticsConfig   `yaml:"embryo"`
	Larva      StageKineticsConfig   `yaml:"larva"`
	Pupa       StageKineticsConfig   `yaml:"pupa"`
	Adult      StageKineticsConfig   `yaml:"adult"`
}

// SegmentsConfig holds procedural segment layout parameters.
type SegmentsConfig struct {
	LocalConcentration float64  `yaml:"local_concentration"`
	ThoraxMorphogens   []string `yaml:"thorax_morphogens"`
	AbdomenMorphogens  []string `yaml:"abdomen_morphogens"`
}

// HomeoticConfig holds homeotic transformation parameters.
type HomeoticConfig struct {
	Rate      float64 `yaml:"rate"`
	WindowMin float64 `yaml:"window_min"`
	WindowMax float64 `yaml:"window_max"`
}

// HeterochronyConfig holds developmental timing-shift parameters.
type HeterochronyConfig struct {
	Factor                float64 `yaml:"factor"`
	Deadband              float64 `yaml:"deadband"`
	DivisionWeight        float64 `yaml:"division_weight"`
	DifferentiationWeight float64 `yaml:"differentiation_weight"`
	MigrationWeight       float64 `yaml:"migration_weight"`
	MinScale              float64 `yaml:"min_scale"`
	MaxScale              float64 `yaml:"max_scale"`
}

// AllometricConfig holds differential segment growth parameters.
type AllometricConfig struct {
	Step      float64 `yaml:"step"`
	Constrain bool    `yaml:"constrain"`
	MinSize   float64 `yaml:"min_size"`
	MaxSize   float64 `yaml:"max_size"`
}

// ModuleConfig declares one time-windowed developmental module.
type ModuleConfig struct {
	Name      string  `yaml:"name"`
	Shape     string  `yaml:"shape"` // ramp, pulse, window
	Start     float64 `yaml:"start"`
	End       float64 `yaml:"end"`
	Threshold float64 `yaml:"threshold"`
	Morphogen string  `yaml:"morphogen"`
	Amount    float64 `yaml:"amount"`
	Gene      string  `yaml:"gene"` // optional
}

// BodyPlanConfig holds the pattern-layer parameters.
type BodyPlanConfig struct {
	Identity     string             `yaml:"identity"`
	Homeotic     HomeoticConfig     `yaml:"homeotic"`
	Heterochrony HeterochronyConfig `yaml:"heterochrony"`
	Allometric   AllometricConfig   `yaml:"allometric"`
	Modules      []ModuleConfig     `yaml:"modules"`
}

// EngineConfig holds particle engine parameters.
type EngineConfig struct {
	MaxParticles    int     `yaml:"max_particles"`
	PopulationScale float64 `yaml:"population_scale"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32        // Physics.DT as float32
	FieldCells     int            // ResX * ResY * ResZ
	MorphogenIndex map[string]int // name -> index into Morphogens
	GeneIndex      map[string]int // name -> index into Genes
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks structural prerequisites. Missing morphogens, bad grid
// resolutions, and dangling gene references are startup failures, not
// conditions the tick loop should degrade around.
func (c *Config) Validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Field.ResX <= 0 || c.Field.ResY <= 0 || c.Field.ResZ <= 0 {
		return fmt.Errorf("field resolution must be positive, got %dx%dx%d",
			c.Field.ResX, c.Field.ResY, c.Field.ResZ)
	}
	if c.Body.Length <= 0 {
		return fmt.Errorf("body.length must be positive, got %v", c.Body.Length)
	}
	if len(c.Morphogens) == 0 {
		return fmt.Errorf("no morphogens declared")
	}

	seen := make(map[string]bool, len(c.Morphogens))
	for _, m := range c.Morphogens {
		if m.Name == "" {
			return fmt.Errorf("morphogen with empty name")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate morphogen %q", m.Name)
		}
		seen[m.Name] = true
		switch m.Gradient {
		case "", "anterior", "posterior":
		default:
			return fmt.Errorf("morphogen %q: unknown gradient %q", m.Name, m.Gradient)
		}
	}

	geneSeen := make(map[string]bool, len(c.Genes))
	for _, g := range c.Genes {
		if g.Name == "" {
			return fmt.Errorf("gene with empty name")
		}
		if geneSeen[g.Name] {
			return fmt.Errorf("duplicate gene %q", g.Name)
		}
		geneSeen[g.Name] = true
		for _, a := range g.Activators {
			if !seen[a] {
				return fmt.Errorf("gene %q: unknown activator morphogen %q", g.Name, a)
			}
		}
		for _, r := range g.Repressors {
			if !seen[r] {
				return fmt.Errorf("gene %q: unknown repressor morphogen %q", g.Name, r)
			}
		}
	}

	t := c.Stages.Thresholds
	if !(t.Egg < t.Embryo && t.Embryo < t.Larva && t.Larva < t.Pupa && t.Pupa < t.AdultFull) {
		return fmt.Errorf("stage thresholds must be strictly increasing: %+v", t)
	}

	for _, m := range c.BodyPlan.Modules {
		switch m.Shape {
		case "ramp", "pulse", "window":
		default:
			return fmt.Errorf("module %q: unknown shape %q", m.Name, m.Shape)
		}
		if m.End <= m.Start {
			return fmt.Errorf("module %q: window end must exceed start", m.Name)
		}
	}

	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.FieldCells = c.Field.ResX * c.Field.ResY * c.Field.ResZ

	c.Derived.MorphogenIndex = make(map[string]int, len(c.Morphogens))
	for i, m := range c.Morphogens {
		c.Derived.MorphogenIndex[m.Name] = i
	}
	c.Derived.GeneIndex = make(map[string]int, len(c.Genes))
	for i, g := range c.Genes {
		c.Derived.GeneIndex[g.Name] = i
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
