package model

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/pkg/errors"
)

// Mode tells a forward pass whether regularization is live. The mode is
// an argument rather than mutable network state, so nothing can go
// stale between training phases.
type Mode int

const (
	// ModeInfer disables dropout; used when generating samples and
	// when producing the fake batch for a discriminator update.
	ModeInfer Mode = iota
	// ModeTrain enables dropout and retains backprop caches.
	ModeTrain
)

// Discriminator scores a (features, label) pair with a calibrated
// probability that the pair came from the real table. Three narrowing
// ReLU layers (4w, 2w, w), dropout 0.1 after the first two, and a
// single sigmoid output unit.
type Discriminator struct {
	batchSize   int
	dataDim     int
	hiddenWidth int
	numClasses  int

	embed *embedding
	l1    *dense
	drop1 *dropout
	l2    *dense
	drop2 *dropout
	l3    *dense
	out   *dense
}

// NewDiscriminator builds a freshly initialized discriminator.
func NewDiscriminator(batchSize, dataDim, hiddenWidth, numClasses int, lr float64, rng *rand.Rand) *Discriminator {
	in := dataDim + 1
	return &Discriminator{
		batchSize:   batchSize,
		dataDim:     dataDim,
		hiddenWidth: hiddenWidth,
		numClasses:  numClasses,
		embed:       newEmbedding(numClasses, lr, rng),
		l1:          newDense(in, 4*hiddenWidth, actReLU, lr, rng),
		drop1:       newDropout(0.1, rng),
		l2:          newDense(4*hiddenWidth, 2*hiddenWidth, actReLU, lr, rng),
		drop2:       newDropout(0.1, rng),
		l3:          newDense(2*hiddenWidth, hiddenWidth, actReLU, lr, rng),
		out:         newDense(hiddenWidth, 1, actSigmoid, lr, rng),
	}
}

// Discriminate scores a batch. Output is batchSize x 1 in [0,1].
func (d *Discriminator) Discriminate(features *mat.Dense, labels []float64, mode Mode) (*mat.Dense, error) {
	return d.forward(features, labels, mode)
}

func (d *Discriminator) forward(features *mat.Dense, labels []float64, mode Mode) (*mat.Dense, error) {
	rows, cols := features.Dims()
	if rows != d.batchSize || cols != d.dataDim {
		return nil, errors.Errorf("discriminator: features are %dx%d, want %dx%d", rows, cols, d.batchSize, d.dataDim)
	}
	if len(labels) != d.batchSize {
		return nil, errors.Errorf("discriminator: got %d labels, want %d", len(labels), d.batchSize)
	}

	// The embedding is computed but the raw label is what gets
	// concatenated below. The table therefore carries parameters that
	// never receive gradient; fixing this would change the checkpoint
	// layout, so it stays.
	if _, err := d.embed.lookup(labels); err != nil {
		return nil, errors.Wrap(err, "discriminator")
	}

	labelCol := mat.NewDense(d.batchSize, 1, nil)
	for i, v := range labels {
		labelCol.Set(i, 0, v)
	}

	var in mat.Dense
	in.Augment(features, labelCol)

	train := mode == ModeTrain
	h := d.l1.forward(&in, train)
	h = d.drop1.forward(h, train)
	h = d.l2.forward(h, train)
	h = d.drop2.forward(h, train)
	h = d.l3.forward(h, train)
	return d.out.forward(h, train), nil
}

// trainStep runs one full update toward the given target (1 for real,
// 0 for fake) and reports the batch loss and accuracy.
func (d *Discriminator) trainStep(features *mat.Dense, labels []float64, target float64) (loss, acc float64, err error) {
	p, err := d.forward(features, labels, ModeTrain)
	if err != nil {
		return 0, 0, err
	}
	loss = bceLoss(p, target)
	acc = accuracy(p, target)

	// Sigmoid + binary cross-entropy: pre-activation gradient is
	// (p - target) / batch.
	dZ := mat.NewDense(d.batchSize, 1, nil)
	for i := 0; i < d.batchSize; i++ {
		dZ.Set(i, 0, (p.At(i, 0)-target)/float64(d.batchSize))
	}
	d.backward(dZ, true)
	return loss, acc, nil
}

// backward propagates the output pre-activation gradient back to the
// network input and returns dL/d(input) (batch x (dataDim+1)). With
// update=false every parameter is left untouched, which is how the
// combined phase keeps the discriminator frozen.
func (d *Discriminator) backward(dZ *mat.Dense, update bool) *mat.Dense {
	g := d.out.backwardPre(dZ, update)
	g = d.l3.backward(g, update)
	g = d.drop2.backward(g)
	g = d.l2.backward(g, update)
	g = d.drop1.backward(g)
	return d.l1.backward(g, update)
}

const probEps = 1e-7

// bceLoss is mean binary cross-entropy against a constant target.
func bceLoss(p *mat.Dense, target float64) float64 {
	rows, _ := p.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		v := math.Min(math.Max(p.At(i, 0), probEps), 1-probEps)
		sum += -(target*math.Log(v) + (1-target)*math.Log(1-v))
	}
	return sum / float64(rows)
}

// accuracy is the fraction of probabilities on the target side of 0.5.
func accuracy(p *mat.Dense, target float64) float64 {
	rows, _ := p.Dims()
	hits := 0
	for i := 0; i < rows; i++ {
		if (p.At(i, 0) >= 0.5) == (target >= 0.5) {
			hits++
		}
	}
	return float64(hits) / float64(rows)
}
