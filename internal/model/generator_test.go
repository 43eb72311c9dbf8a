package model

import (
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestGeneratorOutputShape(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := NewGenerator(6, 3, 7, 4, 3, 0.001, rng)

	noise := mat.NewDense(6, 3, nil)
	for _, labels := range [][]float64{
		{0, 0, 0, 0, 0, 0},
		{2, 1, 0, 2, 1, 0},
	} {
		out, err := g.Generate(noise, labels)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		rows, cols := out.Dims()
		if rows != 6 || cols != 7 {
			t.Fatalf("output is %dx%d, want 6x7", rows, cols)
		}
	}
}

func TestGeneratorRejectsBadShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := NewGenerator(4, 3, 5, 4, 2, 0.001, rng)
	labels := []float64{0, 1, 0, 1}

	if _, err := g.Generate(mat.NewDense(3, 3, nil), labels); err == nil {
		t.Fatal("expected error for wrong batch dimension")
	}
	if _, err := g.Generate(mat.NewDense(4, 2, nil), labels); err == nil {
		t.Fatal("expected error for wrong noise dimension")
	}
	if _, err := g.Generate(mat.NewDense(4, 3, nil), []float64{0, 1}); err == nil {
		t.Fatal("expected error for wrong label count")
	}
	if _, err := g.Generate(mat.NewDense(4, 3, nil), []float64{0, 1, 0, 5}); err == nil {
		t.Fatal("expected error for out-of-range label")
	}
	if _, err := g.Generate(mat.NewDense(4, 3, nil), []float64{0, 1, 0, 0.5}); err == nil {
		t.Fatal("expected error for fractional label")
	}
}

func TestGeneratorDeterministicForFixedInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	g := NewGenerator(2, 2, 3, 4, 2, 0.001, rng)
	noise := mat.NewDense(2, 2, []float64{0.3, -0.7, 1.1, 0.05})
	labels := []float64{0, 1}

	out1, err := g.Generate(noise, labels)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out2, err := g.Generate(noise, labels)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !mat.Equal(out1, out2) {
		t.Fatal("inference is not deterministic for fixed inputs")
	}
}
