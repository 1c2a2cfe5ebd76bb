package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	stageTransitions int
	homeoticSwaps    int
	geneFlips        int
	morphogenPulses  int
	matrixRebuilds   int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		windowStartTick:     0,
	}
}

// RecordStageTransition records a developmental stage transition.
func (c *Collector) RecordStageTransition() {
	c.stageTransitions++
}

// RecordHomeoticSwap records a homeotic identity swap.
func (c *Collector) RecordHomeoticSwap() {
	c.homeoticSwaps++
}

// RecordGeneFlip records a gene expression state change.
func (c *Collector) RecordGeneFlip() {
	c.geneFlips++
}

// RecordMorphogenPulse records a morphogen activation.
func (c *Collector) RecordMorphogenPulse() {
	c.morphogenPulses++
}

// RecordMatrixRebuild records an interaction matrix regeneration.
func (c *Collector) RecordMatrixRebuild() {
	c.matrixRebuilds++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// WindowSnapshot carries the state sampled at window end.
type WindowSnapshot struct {
	Stage             string
	StageProgress     float64
	ParticleCount     int
	ParticlesByType   []int
	ExpressedGenes    int
	SegmentCounts     []int
	MorphogenAverages []float64
}

// Flush produces WindowStats for the completed window and resets counters.
func (c *Collector) Flush(currentTick int32, snap WindowSnapshot) WindowStats {
	occMean, occStd, occP50 := ComputeOccupancyStats(snap.SegmentCounts)
	fieldMean, fieldMax := ComputeFieldStats(snap.MorphogenAverages)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Stage:         snap.Stage,
		StageProgress: snap.StageProgress,

		ParticleCount:   snap.ParticleCount,
		ParticlesByType: FormatTypeCounts(snap.ParticlesByType),
		SegmentCount:    len(snap.SegmentCounts),
		ExpressedGenes:  snap.ExpressedGenes,
		OccupancyMean:   occMean,
		OccupancyStd:    occStd,
		OccupancyP50:    occP50,

		MorphogenMean: fieldMean,
		MorphogenMax:  fieldMax,

		StageTransitions: c.stageTransitions,
		HomeoticSwaps:    c.homeoticSwaps,
		GeneFlips:        c.geneFlips,
		MorphogenPulses:  c.morphogenPulses,
		MatrixRebuilds:   c.matrixRebuilds,
	}

	c.windowStartTick = currentTick
	c.stageTransitions = 0
	c.homeoticSwaps = 0
	c.geneFlips = 0
	c.morphogenPulses = 0
	c.matrixRebuilds = 0

	return stats
}

// Reset clears all counters and restarts the window at tick zero.
func (c *Collector) Reset() {
	c.windowStartTick = 0
	c.stageTransitions = 0
	c.homeoticSwaps = 0
	c.geneFlips = 0
	c.morphogenPulses = 0
	c.matrixRebuilds = 0
}
