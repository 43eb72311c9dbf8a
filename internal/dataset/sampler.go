package dataset

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Batch is one fixed-size training slice. Features and Labels are
// row-aligned: Labels[i] belongs to row i of Features.
type Batch struct {
	Features *mat.Dense
	Labels   []float64
}

// Sampler cuts deterministic fixed-size batches out of a table. The
// table is treated as a cyclic sequence: the full index set is
// reshuffled once per pass (not once per step), the shuffled list is
// duplicated so a window may cross the end of a pass, and each step
// slices the window starting at (batchSize*step) mod NumRows.
type Sampler struct {
	table     *Table
	batchSize int
	seed      int64
}

// NewSampler validates the batch geometry against the table.
func NewSampler(table *Table, batchSize int, seed int64) (*Sampler, error) {
	if table == nil || table.NumRows() == 0 {
		return nil, fmt.Errorf("sampler: table has no rows")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("sampler: batch size must be > 0 (got %d)", batchSize)
	}
	if batchSize > 2*table.NumRows() {
		return nil, fmt.Errorf("sampler: batch size %d exceeds duplicated index length %d", batchSize, 2*table.NumRows())
	}
	return &Sampler{table: table, batchSize: batchSize, seed: seed}, nil
}

// BatchSize returns the configured batch size.
func (s *Sampler) BatchSize() int { return s.batchSize }

// Batch returns the batch for the given step index. The same (seed,
// step, table) always yields the same batch.
func (s *Sampler) Batch(step int) (*Batch, error) {
	if step < 0 {
		return nil, fmt.Errorf("sampler: step must be >= 0 (got %d)", step)
	}
	n := s.table.NumRows()
	start := (s.batchSize * step) % n
	pass := (s.batchSize * step) / n

	rng := rand.New(rand.NewSource(s.seed + int64(pass)))
	perm := rng.Perm(n)
	idx := append(perm, perm...)
	if start+s.batchSize > len(idx) {
		return nil, fmt.Errorf("sampler: window [%d:%d] exceeds duplicated index length %d", start, start+s.batchSize, len(idx))
	}

	features := mat.NewDense(s.batchSize, s.table.NumFeatures(), nil)
	labels := make([]float64, s.batchSize)
	for i, row := range idx[start : start+s.batchSize] {
		x, y := s.table.Row(row)
		features.SetRow(i, x)
		labels[i] = y
	}
	return &Batch{Features: features, Labels: labels}, nil
}
