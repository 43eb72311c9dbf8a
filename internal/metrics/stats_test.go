package metrics

import (
	"math"
	"testing"
	"time"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(10*time.Millisecond, 0.7, 0.5, 1.2)
	w.Record(10*time.Millisecond, 0.5, 0.7, 0.8)
	snap := w.Snapshot()

	if math.Abs(snap.StepsPerSec-100) > 1 {
		t.Fatalf("unexpected throughput %.2f", snap.StepsPerSec)
	}
	if math.Abs(snap.AvgDLoss-0.6) > 1e-12 {
		t.Fatalf("unexpected avg d loss %.4f", snap.AvgDLoss)
	}
	if math.Abs(snap.AvgDAcc-0.6) > 1e-12 {
		t.Fatalf("unexpected avg d acc %.4f", snap.AvgDAcc)
	}
	if snap.LastDLoss != 0.5 || snap.LastGLoss != 0.8 {
		t.Fatalf("unexpected last losses: %+v", snap)
	}
	if w.steps != 0 || w.elapsed != 0 {
		t.Fatal("window was not reset")
	}
}

func TestEmptyWindowSnapshot(t *testing.T) {
	var w Window
	snap := w.Snapshot()
	if snap.StepsPerSec != 0 || snap.AvgStepMS != 0 {
		t.Fatalf("empty window produced non-zero snapshot: %+v", snap)
	}
}
