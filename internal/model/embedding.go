package model

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/pkg/errors"
)

// embedding maps integer class labels to a learned scalar, the
// conditioning representation both networks are built around. The
// table has one row per class and a single output dimension.
type embedding struct {
	numClasses int
	table      []float64
	opt        *adam
	labels     []float64 // cached lookup indices, training mode
}

func newEmbedding(numClasses int, lr float64, rng *rand.Rand) *embedding {
	table := make([]float64, numClasses)
	for i := range table {
		table[i] = (rng.Float64()*2 - 1) * 0.05
	}
	return &embedding{
		numClasses: numClasses,
		table:      table,
		opt:        newAdam(lr, numClasses),
	}
}

// lookup returns the batch x 1 embedded labels and caches the indices for
// the update pass. Labels must be integers in [0, numClasses).
func (e *embedding) lookup(labels []float64) (*mat.Dense, error) {
	out := mat.NewDense(len(labels), 1, nil)
	for i, v := range labels {
		idx, err := e.index(v)
		if err != nil {
			return nil, err
		}
		out.Set(i, 0, e.table[idx])
	}
	e.labels = labels
	return out, nil
}

// update scatters the batch x 1 output gradient back into the table rows
// selected by the cached labels and applies one Adam step.
func (e *embedding) update(dOut *mat.Dense) {
	grad := make([]float64, e.numClasses)
	for i, v := range e.labels {
		grad[int(v)] += dOut.At(i, 0)
	}
	e.opt.step(e.table, grad)
}

func (e *embedding) index(v float64) (int, error) {
	idx := int(v)
	if float64(idx) != v || idx < 0 || idx >= e.numClasses {
		return 0, errors.Errorf("label %g is not a class index in [0,%d)", v, e.numClasses)
	}
	return idx, nil
}
