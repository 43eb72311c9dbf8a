package model

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// activation selects the nonlinearity applied after a dense transform.
type activation int

const (
	actLinear activation = iota
	actReLU
	actSigmoid
)

// dense is one fully connected layer with hand-derived backprop and its
// own Adam state. The forward pass in training mode caches the input
// and activated output; backward consumes those caches. Single-threaded
// use only, like the rest of the training loop.
type dense struct {
	in  int
	out int
	act activation

	w *mat.Dense // in x out
	b []float64  // out

	optW *adam
	optB *adam

	x *mat.Dense // cached input, training mode
	a *mat.Dense // cached activated output, training mode
}

func newDense(in, out int, act activation, lr float64, rng *rand.Rand) *dense {
	// Glorot uniform.
	limit := math.Sqrt(6.0 / float64(in+out))
	w := mat.NewDense(in, out, nil)
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			w.Set(i, j, (rng.Float64()*2-1)*limit)
		}
	}
	return &dense{
		in:   in,
		out:  out,
		act:  act,
		w:    w,
		b:    make([]float64, out),
		optW: newAdam(lr, in*out),
		optB: newAdam(lr, out),
	}
}

// forward computes act(x*W + b). In training mode the caches needed by
// backward are retained.
func (l *dense) forward(x *mat.Dense, train bool) *mat.Dense {
	rows, _ := x.Dims()
	z := mat.NewDense(rows, l.out, nil)
	z.Mul(x, l.w)
	for i := 0; i < rows; i++ {
		for j := 0; j < l.out; j++ {
			z.Set(i, j, z.At(i, j)+l.b[j])
		}
	}
	a := l.activate(z)
	if train {
		l.x = x
		l.a = a
	}
	return a
}

// backward propagates dL/d(output) and returns dL/d(input). Parameter
// updates are applied only when update is true; the combined phase
// routes gradient through a frozen layer by passing false.
func (l *dense) backward(dOut *mat.Dense, update bool) *mat.Dense {
	return l.backprop(l.gradPre(dOut), update)
}

// backwardPre is backward for a caller that already holds
// dL/d(pre-activation). The sigmoid output layer uses this: with
// binary cross-entropy the pre-activation gradient collapses to p-t.
func (l *dense) backwardPre(dZ *mat.Dense, update bool) *mat.Dense {
	return l.backprop(dZ, update)
}

func (l *dense) backprop(dZ *mat.Dense, update bool) *mat.Dense {
	var dX mat.Dense
	dX.Mul(dZ, l.w.T())
	if update {
		var dW mat.Dense
		dW.Mul(l.x.T(), dZ)
		rows, _ := dZ.Dims()
		dB := make([]float64, l.out)
		for i := 0; i < rows; i++ {
			for j := 0; j < l.out; j++ {
				dB[j] += dZ.At(i, j)
			}
		}
		l.optW.step(l.w.RawMatrix().Data, dW.RawMatrix().Data)
		l.optB.step(l.b, dB)
	}
	return &dX
}

func (l *dense) activate(z *mat.Dense) *mat.Dense {
	if l.act == actLinear {
		return z
	}
	rows, cols := z.Dims()
	a := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := z.At(i, j)
			switch l.act {
			case actReLU:
				if v > 0 {
					a.Set(i, j, v)
				}
			case actSigmoid:
				a.Set(i, j, 1/(1+math.Exp(-v)))
			}
		}
	}
	return a
}

// gradPre converts dL/d(activation) into dL/d(pre-activation) using the
// cached activated output.
func (l *dense) gradPre(dOut *mat.Dense) *mat.Dense {
	if l.act == actLinear {
		return dOut
	}
	rows, cols := dOut.Dims()
	dZ := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			g := dOut.At(i, j)
			a := l.a.At(i, j)
			switch l.act {
			case actReLU:
				if a > 0 {
					dZ.Set(i, j, g)
				}
			case actSigmoid:
				dZ.Set(i, j, g*a*(1-a))
			}
		}
	}
	return dZ
}
