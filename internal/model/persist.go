package model

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/pkg/errors"
)

// Checkpoint roles. Only the generator has a load path; discriminator
// checkpoints exist purely for inspection.
const (
	RoleGenerator     = "generator"
	RoleDiscriminator = "discriminator"
)

// CheckpointName reproduces the historical checkpoint layout:
// {outputDir}{prefix}_{role}_model_weights_step_{step}.h5. The output
// directory is concatenated as-is (no separator inserted), so callers
// are expected to pass it with a trailing separator. Downstream
// loaders key on this exact format.
func CheckpointName(outputDir, prefix, role string, step int) string {
	return fmt.Sprintf("%s%s_%s_model_weights_step_%d.h5", outputDir, prefix, role, step)
}

// weightsFile is the on-disk payload: architecture header plus the
// parameter blocks. Matrices carry gonum's own binary marshaling.
type weightsFile struct {
	Role         string
	BatchSize    int
	NoiseDim     int
	DataDim      int
	HiddenWidth  int
	NumClasses   int
	LearningRate float64
	Matrices     map[string][]byte
	Vectors      map[string][]float64
}

// SaveGenerator writes the generator weights under dir/name. The
// directory must already exist; nothing is written otherwise.
func (c *CGAN) SaveGenerator(dir, name string) error {
	if err := requireDir(dir); err != nil {
		return err
	}
	return c.G.saveTo(filepath.Join(dir, name))
}

// LoadGenerator rebuilds a generator of matching geometry from weights
// previously written by SaveGenerator. The directory must exist.
func LoadGenerator(dir, name string) (*Generator, error) {
	if err := requireDir(dir); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load generator")
	}
	defer f.Close()

	var wf weightsFile
	if err := gob.NewDecoder(f).Decode(&wf); err != nil {
		return nil, errors.Wrap(err, "load generator: decode")
	}
	if wf.Role != RoleGenerator {
		return nil, errors.Errorf("load generator: %s holds %q weights", path, wf.Role)
	}

	// Initialization is immediately overwritten, so the seed is inert.
	g := NewGenerator(wf.BatchSize, wf.NoiseDim, wf.DataDim, wf.HiddenWidth, wf.NumClasses, wf.LearningRate, rand.New(rand.NewSource(1)))
	if err := g.restore(&wf); err != nil {
		return nil, errors.Wrap(err, "load generator")
	}
	return g, nil
}

// WriteCheckpoint persists both networks under the historical naming
// scheme for the given step.
func (c *CGAN) WriteCheckpoint(outputDir, prefix string, step int) error {
	if err := c.G.saveTo(CheckpointName(outputDir, prefix, RoleGenerator, step)); err != nil {
		return err
	}
	return c.D.saveTo(CheckpointName(outputDir, prefix, RoleDiscriminator, step))
}

func (g *Generator) saveTo(path string) error {
	wf := &weightsFile{
		Role:         RoleGenerator,
		BatchSize:    g.batchSize,
		NoiseDim:     g.noiseDim,
		DataDim:      g.dataDim,
		HiddenWidth:  g.hiddenWidth,
		NumClasses:   g.numClasses,
		LearningRate: g.l1.optW.lr,
		Matrices:     map[string][]byte{},
		Vectors: map[string][]float64{
			"embed": g.embed.table,
			"b1":    g.l1.b,
			"b2":    g.l2.b,
			"b3":    g.l3.b,
			"b_out": g.out.b,
		},
	}
	for name, l := range map[string]*dense{"w1": g.l1, "w2": g.l2, "w3": g.l3, "w_out": g.out} {
		raw, err := l.w.MarshalBinary()
		if err != nil {
			return errors.Wrapf(err, "save generator: %s", name)
		}
		wf.Matrices[name] = raw
	}
	return writeWeights(path, wf)
}

func (g *Generator) restore(wf *weightsFile) error {
	for name, l := range map[string]*dense{"w1": g.l1, "w2": g.l2, "w3": g.l3, "w_out": g.out} {
		raw, ok := wf.Matrices[name]
		if !ok {
			return errors.Errorf("missing weight block %s", name)
		}
		var w mat.Dense
		if err := w.UnmarshalBinary(raw); err != nil {
			return errors.Wrapf(err, "weight block %s", name)
		}
		l.w = &w
	}
	for name, dst := range map[string][]float64{"embed": g.embed.table, "b1": g.l1.b, "b2": g.l2.b, "b3": g.l3.b, "b_out": g.out.b} {
		src, ok := wf.Vectors[name]
		if !ok {
			return errors.Errorf("missing weight block %s", name)
		}
		if len(src) != len(dst) {
			return errors.Errorf("weight block %s has %d values, want %d", name, len(src), len(dst))
		}
		copy(dst, src)
	}
	return nil
}

func (d *Discriminator) saveTo(path string) error {
	wf := &weightsFile{
		Role:         RoleDiscriminator,
		BatchSize:    d.batchSize,
		DataDim:      d.dataDim,
		HiddenWidth:  d.hiddenWidth,
		NumClasses:   d.numClasses,
		LearningRate: d.l1.optW.lr,
		Matrices:     map[string][]byte{},
		Vectors: map[string][]float64{
			"embed": d.embed.table,
			"b1":    d.l1.b,
			"b2":    d.l2.b,
			"b3":    d.l3.b,
			"b_out": d.out.b,
		},
	}
	for name, l := range map[string]*dense{"w1": d.l1, "w2": d.l2, "w3": d.l3, "w_out": d.out} {
		raw, err := l.w.MarshalBinary()
		if err != nil {
			return errors.Wrapf(err, "save discriminator: %s", name)
		}
		wf.Matrices[name] = raw
	}
	return writeWeights(path, wf)
}

func writeWeights(path string, wf *weightsFile) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write weights")
	}
	if err := gob.NewEncoder(f).Encode(wf); err != nil {
		f.Close()
		return errors.Wrap(err, "write weights: encode")
	}
	return errors.Wrap(f.Close(), "write weights")
}

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "path %s must be an existing directory", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("path %s must be a directory", dir)
	}
	return nil
}
