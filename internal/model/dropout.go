package model

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// dropout zeroes a random fraction of activations in training mode,
// scaling survivors by 1/(1-rate) so inference needs no correction.
type dropout struct {
	rate float64
	rng  *rand.Rand
	mask *mat.Dense // cached mask, training mode
}

func newDropout(rate float64, rng *rand.Rand) *dropout {
	return &dropout{rate: rate, rng: rng}
}

func (d *dropout) forward(x *mat.Dense, train bool) *mat.Dense {
	if !train {
		return x
	}
	rows, cols := x.Dims()
	scale := 1 / (1 - d.rate)
	mask := mat.NewDense(rows, cols, nil)
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if d.rng.Float64() >= d.rate {
				mask.Set(i, j, scale)
				out.Set(i, j, x.At(i, j)*scale)
			}
		}
	}
	d.mask = mask
	return out
}

// backward applies the mask cached by the last training-mode forward.
func (d *dropout) backward(dOut *mat.Dense) *mat.Dense {
	var dX mat.Dense
	dX.MulElem(dOut, d.mask)
	return &dX
}
