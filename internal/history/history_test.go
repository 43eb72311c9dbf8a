package history

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRecordAndReadBack(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.StartRun(ctx, "run-1", "smoke"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	for step, losses := range [][3]float64{{0.9, 0.5, 1.4}, {0.8, 0.6, 1.2}, {0.7, 0.7, 1.0}} {
		if err := store.RecordStep(ctx, "run-1", step, losses[0], losses[1], losses[2]); err != nil {
			t.Fatalf("RecordStep(%d): %v", step, err)
		}
	}

	steps, err := store.Steps(ctx, "run-1")
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[1].Step != 1 || steps[1].DLoss != 0.8 || steps[1].GLoss != 1.2 {
		t.Fatalf("unexpected step record: %+v", steps[1])
	}
}

func TestRecordStepOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.RecordStep(ctx, "run-1", 0, 1, 0.5, 1); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}
	if err := store.RecordStep(ctx, "run-1", 0, 2, 0.6, 2); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}
	steps, err := store.Steps(ctx, "run-1")
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != 1 || steps[0].DLoss != 2 {
		t.Fatalf("expected single overwritten record, got %+v", steps)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.RecordStep(ctx, "run-1", 0, 1, 1, 1); err == nil {
		t.Fatal("expected error writing to closed store")
	}
}
