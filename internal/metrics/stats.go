package metrics

import "time"

// Window accumulates timing and loss stats across multiple steps.
type Window struct {
	steps    int
	elapsed  time.Duration
	sumDLoss float64
	sumDAcc  float64
	sumGLoss float64
	lastD    float64
	lastG    float64
}

// Record adds a new step measurement to the window.
func (w *Window) Record(stepTime time.Duration, dLoss, dAcc, gLoss float64) {
	w.steps++
	w.elapsed += stepTime
	w.sumDLoss += dLoss
	w.sumDAcc += dAcc
	w.sumGLoss += gLoss
	w.lastD = dLoss
	w.lastG = gLoss
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{}
	if w.elapsed > 0 {
		snap.StepsPerSec = float64(w.steps) / w.elapsed.Seconds()
	}
	if w.steps > 0 {
		snap.AvgStepMS = (w.elapsed.Seconds() * 1000) / float64(w.steps)
		snap.AvgDLoss = w.sumDLoss / float64(w.steps)
		snap.AvgDAcc = w.sumDAcc / float64(w.steps)
		snap.AvgGLoss = w.sumGLoss / float64(w.steps)
	}
	snap.LastDLoss = w.lastD
	snap.LastGLoss = w.lastG

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	StepsPerSec float64
	AvgStepMS   float64
	AvgDLoss    float64
	AvgDAcc     float64
	AvgGLoss    float64
	LastDLoss   float64
	LastGLoss   float64
}
