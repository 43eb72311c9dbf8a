package model

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/pkg/errors"
)

// Generator maps (noise, class label) to a synthetic feature vector.
// The label passes through a learned scalar embedding and is
// concatenated with the raw noise vector; three widening ReLU layers
// (w, 2w, 4w) feed a final linear layer so the output range is
// unconstrained, matching normalized real features.
//
// The batch dimension is fixed at construction; inputs of any other
// shape are rejected.
type Generator struct {
	batchSize   int
	noiseDim    int
	dataDim     int
	hiddenWidth int
	numClasses  int

	embed *embedding
	l1    *dense
	l2    *dense
	l3    *dense
	out   *dense
}

// NewGenerator builds a freshly initialized generator.
func NewGenerator(batchSize, noiseDim, dataDim, hiddenWidth, numClasses int, lr float64, rng *rand.Rand) *Generator {
	in := noiseDim + 1
	return &Generator{
		batchSize:   batchSize,
		noiseDim:    noiseDim,
		dataDim:     dataDim,
		hiddenWidth: hiddenWidth,
		numClasses:  numClasses,
		embed:       newEmbedding(numClasses, lr, rng),
		l1:          newDense(in, hiddenWidth, actReLU, lr, rng),
		l2:          newDense(hiddenWidth, 2*hiddenWidth, actReLU, lr, rng),
		l3:          newDense(2*hiddenWidth, 4*hiddenWidth, actReLU, lr, rng),
		out:         newDense(4*hiddenWidth, dataDim, actLinear, lr, rng),
	}
}

// DataDim returns the width of generated feature vectors.
func (g *Generator) DataDim() int { return g.dataDim }

// NoiseDim returns the expected noise vector length.
func (g *Generator) NoiseDim() int { return g.noiseDim }

// BatchSize returns the fixed batch dimension.
func (g *Generator) BatchSize() int { return g.batchSize }

// Generate runs the generator in inference mode.
func (g *Generator) Generate(noise *mat.Dense, labels []float64) (*mat.Dense, error) {
	return g.forward(noise, labels, false)
}

func (g *Generator) forward(noise *mat.Dense, labels []float64, train bool) (*mat.Dense, error) {
	rows, cols := noise.Dims()
	if rows != g.batchSize || cols != g.noiseDim {
		return nil, errors.Errorf("generator: noise is %dx%d, want %dx%d", rows, cols, g.batchSize, g.noiseDim)
	}
	if len(labels) != g.batchSize {
		return nil, errors.Errorf("generator: got %d labels, want %d", len(labels), g.batchSize)
	}

	emb, err := g.embed.lookup(labels)
	if err != nil {
		return nil, errors.Wrap(err, "generator")
	}

	var in mat.Dense
	in.Augment(noise, emb)

	h := g.l1.forward(&in, train)
	h = g.l2.forward(h, train)
	h = g.l3.forward(h, train)
	return g.out.forward(h, train), nil
}

// backward applies one Adam step to every generator parameter given the
// loss gradient with respect to the generated features. The gradient
// slice feeding the embedded label is scattered back into the table.
func (g *Generator) backward(dFeatures *mat.Dense) {
	d := g.out.backward(dFeatures, true)
	d = g.l3.backward(d, true)
	d = g.l2.backward(d, true)
	d = g.l1.backward(d, true)

	dEmb := mat.NewDense(g.batchSize, 1, nil)
	for i := 0; i < g.batchSize; i++ {
		dEmb.Set(i, 0, d.At(i, g.noiseDim))
	}
	g.embed.update(dEmb)
}
