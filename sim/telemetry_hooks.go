package sim

import (
	"context"
	"log/slog"

	"github.com/instar-sim/instar/telemetry"
)

// recordEvent fans one developmental event out to CSV and SQLite. Sink
// failures are logged, never fatal.
func (s *Simulation) recordEvent(ev telemetry.Event) {
	if err := s.output.WriteEvent(ev); err != nil {
		slog.Warn("writing event csv", "type", ev.Type.String(), "error", err)
	}
	if err := s.store.WriteEvent(context.Background(), ev); err != nil {
		slog.Warn("writing event db", "type", ev.Type.String(), "error", err)
	}
}

// flushTelemetry closes the stats window when due.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, telemetry.WindowSnapshot{
		Stage:             s.stages.Stage().String(),
		StageProgress:     s.stages.CalculateProgress(),
		ParticleCount:     s.engine.Count(),
		ParticlesByType:   s.engine.CountByType(),
		ExpressedGenes:    s.genes.ExpressedCount(),
		SegmentCounts:     s.assignment.Counts(),
		MorphogenAverages: s.field.Averages(),
	})
	s.lastStats = stats
	s.hasStats = true

	if s.logStats {
		stats.Log()
	}
	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Warn("writing telemetry csv", "error", err)
	}
}
