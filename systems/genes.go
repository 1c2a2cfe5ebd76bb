package systems

import (
	"fmt"
	"log/slog"
	"strings"
)

// GeneEffect categorizes how an expressed gene modulates interactions.
// Resolved once from the gene name when the gene list is built, so the
// per-tick matrix pass never scans strings.
type GeneEffect uint8

const (
	EffectNeutral GeneEffect = iota
	EffectAdhesion
	EffectMigration
)

// Multiplier returns the interaction rescale factor for the effect.
func (e GeneEffect) Multiplier() float64 {
	switch e {
	case EffectAdhesion:
		return 1.5
	case EffectMigration:
		return 0.5
	default:
		return 1.0
	}
}

// GeneEffectFromName derives the effect category from the gene's name.
func GeneEffectFromName(name string) GeneEffect {
	switch {
	case strings.Contains(name, "Adhesion"):
		return EffectAdhesion
	case strings.Contains(name, "Migration"):
		return EffectMigration
	default:
		return EffectNeutral
	}
}

// Gene is a boolean-expressed regulatory rule keyed on morphogen averages.
// Activators and Repressors are morphogen grid indices resolved at build.
type Gene struct {
	Name       string
	Threshold  float64
	Activators []int
	Repressors []int
	Results    []CellType
	Effect     GeneEffect
	Expressed  bool
}

// GeneEvaluator runs the expression pass over the full gene list each tick.
type GeneEvaluator struct {
	genes  []Gene
	byName map[string]int
}

// NewGeneEvaluator builds the evaluator with a pre-resolved gene list.
func NewGeneEvaluator(genes []Gene) (*GeneEvaluator, error) {
	e := &GeneEvaluator{
		genes:  make([]Gene, len(genes)),
		byName: make(map[string]int, len(genes)),
	}
	copy(e.genes, genes)
	for i := range e.genes {
		g := &e.genes[i]
		if _, dup := e.byName[g.Name]; dup {
			return nil, fmt.Errorf("duplicate gene %q", g.Name)
		}
		e.byName[g.Name] = i
	}
	return e, nil
}

// Evaluate recomputes every gene's expression flag from the field's
// whole-grid averages. A gene starts true; any activator below threshold
// forces it false (short-circuit); only a still-true gene checks its
// repressors, any of which at or above threshold forces it false. A gene
// with no activators passes the activator check trivially.
func (e *GeneEvaluator) Evaluate(field *MorphogenField) {
	for i := range e.genes {
		g := &e.genes[i]

		shouldExpress := true
		for _, mi := range g.Activators {
			if field.AverageConcentration(mi) < g.Threshold {
				shouldExpress = false
				break
			}
		}
		if shouldExpress {
			for _, mi := range g.Repressors {
				if field.AverageConcentration(mi) >= g.Threshold {
					shouldExpress = false
					break
				}
			}
		}
		g.Expressed = shouldExpress
	}
}

// Express forces a gene's expression flag directly. The override holds
// until the next Evaluate pass. Unknown names are a silent no-op (logged
// at debug level).
func (e *GeneEvaluator) Express(name string, on bool) {
	i, ok := e.byName[name]
	if !ok {
		slog.Debug("express: unknown gene", "name", name)
		return
	}
	e.genes[i].Expressed = on
}

// Genes returns the live gene list. The matrix generator reads expression
// flags and result types from it; callers must not reorder it.
func (e *GeneEvaluator) Genes() []Gene { return e.genes }

// Gene returns the gene with the given name.
func (e *GeneEvaluator) Gene(name string) (*Gene, bool) {
	i, ok := e.byName[name]
	if !ok {
		return nil, false
	}
	return &e.genes[i], true
}

// ExpressedCount returns how many genes are currently expressed.
func (e *GeneEvaluator) ExpressedCount() int {
	n := 0
	for i := range e.genes {
		if e.genes[i].Expressed {
			n++
		}
	}
	return n
}
