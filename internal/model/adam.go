package model

import "math"

// adam holds per-parameter moment estimates for one weight block.
// beta1 is 0.5 rather than the usual 0.9, matching the tabular GAN
// recipe the networks were tuned with.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
	m     []float64
	v     []float64
}

func newAdam(lr float64, size int) *adam {
	return &adam{
		lr:    lr,
		beta1: 0.5,
		beta2: 0.999,
		eps:   1e-8,
		m:     make([]float64, size),
		v:     make([]float64, size),
	}
}

// step applies one bias-corrected Adam update in place.
func (a *adam) step(param, grad []float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, g := range grad {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g
		mHat := a.m[i] / c1
		vHat := a.v[i] / c2
		param[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}
