package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/instar-sim/instar/telemetry"
)

func TestStoreDisabled(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Fatal("empty path should disable the store")
	}

	// All methods are nil-safe no-ops.
	ctx := context.Background()
	if _, err := s.BeginRun(ctx, 1, "ancestral"); err != nil {
		t.Error(err)
	}
	if err := s.WriteEvent(ctx, telemetry.Event{}); err != nil {
		t.Error(err)
	}
	if err := s.EndRun(ctx, 10); err != nil {
		t.Error(err)
	}
	if err := s.Close(); err != nil {
		t.Error(err)
	}
}

func TestStoreRunLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	id, err := s.BeginRun(ctx, 42, "beetle")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || s.RunID() != id {
		t.Errorf("run id = %q", id)
	}

	events := []telemetry.Event{
		telemetry.NewStageTransitionEvent(600, 10.0, "Egg", "Embryo"),
		telemetry.NewHomeoticSwapEvent(1200, 20.0, "Abdomen2", "Abdomen1"),
		telemetry.NewGeneFlipEvent(1300, 21.6, "WingAdhesionGene", true),
	}
	for _, ev := range events {
		if err := s.WriteEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.EventCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(events) {
		t.Errorf("event count = %d, want %d", n, len(events))
	}

	if err := s.EndRun(ctx, 1300); err != nil {
		t.Fatal(err)
	}
}

func TestStoreEventsBeforeRunAreDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// No open run: writes are silently skipped rather than orphaned.
	if err := s.WriteEvent(context.Background(), telemetry.Event{}); err != nil {
		t.Fatal(err)
	}
	n, err := s.EventCount(context.Background())
	if err != nil || n != 0 {
		t.Errorf("count = %d, %v", n, err)
	}
}
