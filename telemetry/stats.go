package telemetry

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Developmental state at window end
	Stage         string  `csv:"stage"`
	StageProgress float64 `csv:"stage_progress"`

	// Population at window end
	ParticleCount   int     `csv:"particles"`
	ParticlesByType string  `csv:"particles_by_type"`
	SegmentCount    int     `csv:"segments"`
	ExpressedGenes  int     `csv:"expressed_genes"`
	OccupancyMean   float64 `csv:"occupancy_mean"`
	OccupancyStd    float64 `csv:"occupancy_std"`
	OccupancyP50    float64 `csv:"occupancy_p50"`

	// Morphogen field (sampled at window end)
	MorphogenMean float64 `csv:"morphogen_mean"`
	MorphogenMax  float64 `csv:"morphogen_max"`

	// Events during window
	StageTransitions int `csv:"stage_transitions"`
	HomeoticSwaps    int `csv:"homeotic_swaps"`
	GeneFlips        int `csv:"gene_flips"`
	MorphogenPulses  int `csv:"morphogen_pulses"`
	MatrixRebuilds   int `csv:"matrix_rebuilds"`
}

// FormatTypeCounts renders per-type particle counts as a single pipe-joined
// CSV cell, e.g. "120|60|30".
func FormatTypeCounts(counts []int) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, "|")
}

// ComputeOccupancyStats summarizes per-segment particle counts.
func ComputeOccupancyStats(counts []int) (mean, std, p50 float64) {
	if len(counts) == 0 {
		return 0, 0, 0
	}

	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}

	mean, variance := stat.MeanVariance(values, nil)
	if variance > 0 {
		std = stat.StdDev(values, nil)
	}

	sort.Float64s(values)
	p50 = stat.Quantile(0.5, stat.Empirical, values, nil)
	return mean, std, p50
}

// ComputeFieldStats summarizes per-morphogen average concentrations.
func ComputeFieldStats(averages []float64) (mean, max float64) {
	if len(averages) == 0 {
		return 0, 0
	}
	mean = stat.Mean(averages, nil)
	max = averages[0]
	for _, v := range averages[1:] {
		if v > max {
			max = v
		}
	}
	return mean, max
}

// Log emits the window stats via structured logging.
func (ws WindowStats) Log() {
	slog.Info("window stats",
		"tick", ws.WindowEndTick,
		"time", ws.SimTimeSec,
		"stage", ws.Stage,
		"progress", ws.StageProgress,
		"particles", ws.ParticleCount,
		"expressed_genes", ws.ExpressedGenes,
		"morphogen_mean", ws.MorphogenMean,
		"stage_transitions", ws.StageTransitions,
		"homeotic_swaps", ws.HomeoticSwaps,
		"gene_flips", ws.GeneFlips,
	)
}
