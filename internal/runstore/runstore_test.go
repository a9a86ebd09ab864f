package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, err := s.Record(ctx, Run{
			Seed: int64(i), Mode: "looter", Duration: 60, Outcome: "running", Level: 1,
			PeakHeat: float64(10 * i), AvgHeat: 5, PeakPopulation: 4 + i, LootCollected: i,
		})
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
		if id != int64(i) {
			t.Errorf("run %d: id = %d", i, id)
		}
	}

	runs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Seed != 3 || runs[1].Seed != 2 {
		t.Errorf("expected newest first, got seeds %d,%d", runs[0].Seed, runs[1].Seed)
	}
	if runs[0].PeakHeat != 30 || runs[0].PeakPopulation != 7 || runs[0].Mode != "looter" {
		t.Errorf("row mismatch: %+v", runs[0])
	}
	if runs[0].RecordedAt.IsZero() {
		t.Error("recorded_at should be stamped")
	}
}

func TestRecentDefaultLimit(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := s.Record(ctx, Run{Seed: int64(i), Mode: "hunter", Outcome: "lost"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	runs, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 20 {
		t.Errorf("expected default limit 20, got %d", len(runs))
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Record(context.Background(), Run{RecordedAt: at, Seed: 42, Mode: "looter", Outcome: "won", BossKills: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	runs, err := s.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Seed != 42 || runs[0].BossKills != 1 || runs[0].Outcome != "won" {
		t.Fatalf("unexpected history: %+v", runs)
	}
	if !runs[0].RecordedAt.Equal(at) {
		t.Errorf("recorded_at = %v, want %v", runs[0].RecordedAt, at)
	}
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
