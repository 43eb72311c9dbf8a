package model

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testParams() Params {
	return Params{
		BatchSize:    8,
		LearningRate: 0.001,
		NoiseDim:     4,
		DataDim:      5,
		NumClasses:   2,
		Classes:      []int{0, 1},
		LayerWidth:   8,
	}
}

func testBatch(p Params) (*mat.Dense, []float64) {
	features := mat.NewDense(p.BatchSize, p.DataDim, nil)
	labels := make([]float64, p.BatchSize)
	for i := 0; i < p.BatchSize; i++ {
		labels[i] = float64(i % p.NumClasses)
		for j := 0; j < p.DataDim; j++ {
			features.Set(i, j, float64(i*j)/10-0.5)
		}
	}
	return features, labels
}

func denseChecksum(layers ...*dense) float64 {
	sum := 0.0
	for _, l := range layers {
		for _, v := range l.w.RawMatrix().Data {
			sum += v
		}
		for _, v := range l.b {
			sum += v
		}
	}
	return sum
}

func discChecksum(d *Discriminator) float64 {
	sum := denseChecksum(d.l1, d.l2, d.l3, d.out)
	for _, v := range d.embed.table {
		sum += v
	}
	return sum
}

func genChecksum(g *Generator) float64 {
	sum := denseChecksum(g.l1, g.l2, g.l3, g.out)
	for _, v := range g.embed.table {
		sum += v
	}
	return sum
}

func TestNewRejectsBadParams(t *testing.T) {
	cases := map[string]func(*Params){
		"zero batch":      func(p *Params) { p.BatchSize = 0 },
		"zero lr":         func(p *Params) { p.LearningRate = 0 },
		"zero noise dim":  func(p *Params) { p.NoiseDim = 0 },
		"zero data dim":   func(p *Params) { p.DataDim = 0 },
		"class mismatch":  func(p *Params) { p.Classes = []int{0} },
		"class range":     func(p *Params) { p.Classes = []int{0, 7} },
		"duplicate class": func(p *Params) { p.Classes = []int{1, 1} },
		"zero width":      func(p *Params) { p.LayerWidth = 0 },
	}
	for name, mutate := range cases {
		p := testParams()
		mutate(&p)
		if _, err := New(p, 1); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestTrainDiscriminatorReturnsFiniteStats(t *testing.T) {
	gan, err := New(testParams(), 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	features, labels := testBatch(gan.Params())
	stats, err := gan.TrainDiscriminator(features, labels)
	if err != nil {
		t.Fatalf("TrainDiscriminator: %v", err)
	}
	for name, v := range map[string]float64{
		"loss": stats.Loss, "acc": stats.Acc,
		"loss_real": stats.LossReal, "loss_fake": stats.LossFake,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is not finite: %g", name, v)
		}
	}
	if stats.Acc < 0 || stats.Acc > 1 {
		t.Fatalf("accuracy out of range: %g", stats.Acc)
	}
	if math.Abs(stats.Loss-0.5*(stats.LossReal+stats.LossFake)) > 1e-12 {
		t.Fatalf("combined loss is not the mean of real and fake: %+v", stats)
	}
}

func TestTrainGeneratorLeavesDiscriminatorFrozen(t *testing.T) {
	gan, err := New(testParams(), 11)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, labels := testBatch(gan.Params())

	dBefore := discChecksum(gan.D)
	gBefore := genChecksum(gan.G)

	loss, err := gan.TrainGenerator(labels)
	if err != nil {
		t.Fatalf("TrainGenerator: %v", err)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		t.Fatalf("generator loss is not finite: %g", loss)
	}

	if dAfter := discChecksum(gan.D); dAfter != dBefore {
		t.Fatalf("discriminator weights changed during generator update: %g -> %g", dBefore, dAfter)
	}
	if gAfter := genChecksum(gan.G); gAfter == gBefore {
		t.Fatal("generator weights did not change during generator update")
	}
}

func TestTrainDiscriminatorLeavesGeneratorUntouched(t *testing.T) {
	gan, err := New(testParams(), 17)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	features, labels := testBatch(gan.Params())

	gBefore := genChecksum(gan.G)
	dBefore := discChecksum(gan.D)
	if _, err := gan.TrainDiscriminator(features, labels); err != nil {
		t.Fatalf("TrainDiscriminator: %v", err)
	}
	if gAfter := genChecksum(gan.G); gAfter != gBefore {
		t.Fatalf("generator weights changed during discriminator update: %g -> %g", gBefore, gAfter)
	}
	if dAfter := discChecksum(gan.D); dAfter == dBefore {
		t.Fatal("discriminator weights did not change during discriminator update")
	}
}

func TestSampleNoiseShape(t *testing.T) {
	gan, err := New(testParams(), 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	z := gan.SampleNoise()
	rows, cols := z.Dims()
	if rows != 8 || cols != 4 {
		t.Fatalf("noise is %dx%d, want 8x4", rows, cols)
	}
	z2 := gan.SampleNoise()
	if mat.Equal(z, z2) {
		t.Fatal("consecutive noise draws are identical")
	}
}
