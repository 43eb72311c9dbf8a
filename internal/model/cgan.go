// Package model implements a conditional GAN for tabular data: a
// generator and discriminator conditioned on a class label, trained
// adversarially with hand-derived backprop on gonum matrices.
package model

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pkg/errors"
)

// Params mirrors the construction tuple of the system.
type Params struct {
	BatchSize    int
	LearningRate float64
	NoiseDim     int
	DataDim      int
	NumClasses   int
	Classes      []int
	LayerWidth   int
}

func (p Params) validate() error {
	if p.BatchSize <= 0 {
		return errors.Errorf("batch size must be > 0 (got %d)", p.BatchSize)
	}
	if p.LearningRate <= 0 {
		return errors.Errorf("learning rate must be > 0 (got %g)", p.LearningRate)
	}
	if p.NoiseDim <= 0 {
		return errors.Errorf("noise dim must be > 0 (got %d)", p.NoiseDim)
	}
	if p.DataDim <= 0 {
		return errors.Errorf("data dim must be > 0 (got %d)", p.DataDim)
	}
	if p.NumClasses <= 0 {
		return errors.Errorf("num classes must be > 0 (got %d)", p.NumClasses)
	}
	if len(p.Classes) != p.NumClasses {
		return errors.Errorf("classes lists %d values, num classes is %d", len(p.Classes), p.NumClasses)
	}
	seen := make(map[int]bool, len(p.Classes))
	for _, c := range p.Classes {
		if c < 0 || c >= p.NumClasses {
			return errors.Errorf("class %d outside [0,%d)", c, p.NumClasses)
		}
		if seen[c] {
			return errors.Errorf("class %d listed twice", c)
		}
		seen[c] = true
	}
	if p.LayerWidth <= 0 {
		return errors.Errorf("layer width must be > 0 (got %d)", p.LayerWidth)
	}
	return nil
}

// DStats captures one discriminator phase: the two per-target updates
// and their elementwise means.
type DStats struct {
	Loss     float64
	Acc      float64
	LossReal float64
	LossFake float64
}

// CGAN couples the generator and discriminator. Generator parameters
// and discriminator parameters are disjoint groups; each training
// method applies its optimizer to exactly one group, so there is no
// trainable flag to toggle and nothing to restore between phases.
type CGAN struct {
	params Params

	G *Generator
	D *Discriminator

	noise distuv.Normal
}

// New validates the construction arguments and builds both networks.
func New(p Params, seed uint64) (*CGAN, error) {
	if err := p.validate(); err != nil {
		return nil, errors.Wrap(err, "cgan")
	}
	src := rand.NewSource(seed)
	rng := rand.New(src)
	return &CGAN{
		params: p,
		G:      NewGenerator(p.BatchSize, p.NoiseDim, p.DataDim, p.LayerWidth, p.NumClasses, p.LearningRate, rng),
		D:      NewDiscriminator(p.BatchSize, p.DataDim, p.LayerWidth, p.NumClasses, p.LearningRate, rng),
		noise:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}, nil
}

// Params returns the construction arguments.
func (c *CGAN) Params() Params { return c.params }

// SampleNoise draws a fresh batchSize x noiseDim standard normal matrix.
func (c *CGAN) SampleNoise() *mat.Dense {
	z := mat.NewDense(c.params.BatchSize, c.params.NoiseDim, nil)
	for i := 0; i < c.params.BatchSize; i++ {
		for j := 0; j < c.params.NoiseDim; j++ {
			z.Set(i, j, c.noise.Rand())
		}
	}
	return z
}

// TrainDiscriminator runs the discriminator phase: a fake batch is
// generated from fresh noise (inference mode, no gradient), then the
// discriminator takes one update on the real batch toward 1 and one on
// the fake batch toward 0.
func (c *CGAN) TrainDiscriminator(features *mat.Dense, labels []float64) (DStats, error) {
	fake, err := c.G.Generate(c.SampleNoise(), labels)
	if err != nil {
		return DStats{}, errors.Wrap(err, "discriminator phase")
	}

	lossReal, accReal, err := c.D.trainStep(features, labels, 1)
	if err != nil {
		return DStats{}, errors.Wrap(err, "discriminator phase: real batch")
	}
	lossFake, accFake, err := c.D.trainStep(fake, labels, 0)
	if err != nil {
		return DStats{}, errors.Wrap(err, "discriminator phase: fake batch")
	}

	return DStats{
		Loss:     0.5 * (lossReal + lossFake),
		Acc:      0.5 * (accReal + accFake),
		LossReal: lossReal,
		LossFake: lossFake,
	}, nil
}

// TrainGenerator runs the combined phase: fresh noise and the real
// batch labels flow through generator and discriminator toward target
// 1, the gradient is routed back through the frozen discriminator, and
// only generator parameters are updated.
func (c *CGAN) TrainGenerator(labels []float64) (float64, error) {
	fake, err := c.G.forward(c.SampleNoise(), labels, true)
	if err != nil {
		return 0, errors.Wrap(err, "generator phase")
	}
	p, err := c.D.forward(fake, labels, ModeTrain)
	if err != nil {
		return 0, errors.Wrap(err, "generator phase")
	}
	loss := bceLoss(p, 1)

	b := c.params.BatchSize
	dZ := mat.NewDense(b, 1, nil)
	for i := 0; i < b; i++ {
		dZ.Set(i, 0, (p.At(i, 0)-1)/float64(b))
	}

	// Discriminator parameters stay frozen here by construction.
	dIn := c.D.backward(dZ, false)

	dFeatures := mat.NewDense(b, c.params.DataDim, nil)
	for i := 0; i < b; i++ {
		for j := 0; j < c.params.DataDim; j++ {
			dFeatures.Set(i, j, dIn.At(i, j))
		}
	}
	c.G.backward(dFeatures)
	return loss, nil
}
