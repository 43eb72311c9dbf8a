package trainer

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"tabforge/internal/dataset"
	"tabforge/internal/history"
	"tabforge/internal/metrics"
	"tabforge/internal/model"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Steps              int
	LogEvery           int
	CheckpointPrefix   string
	CheckpointInterval int
	OutputDir          string

	// RunID and History are optional; when both are set every step's
	// losses are recorded.
	RunID   string
	History *history.Store
}

// Run executes the adversarial training loop: per step, one
// discriminator phase (real batch toward 1, fake batch toward 0)
// followed by one generator phase through the frozen discriminator.
// Steps are synchronous; cancellation is honored between steps only.
func Run(ctx context.Context, gan *model.CGAN, sampler *dataset.Sampler, cfg RunConfig) error {
	if cfg.Steps <= 0 {
		return errors.Errorf("trainer: steps must be > 0 (got %d)", cfg.Steps)
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}
	if cfg.CheckpointInterval > 0 {
		if _, err := os.Stat(cfg.OutputDir); err != nil {
			return errors.Wrapf(err, "trainer: output directory %s must exist", cfg.OutputDir)
		}
	}

	var window metrics.Window

	for step := 0; step < cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		batch, err := sampler.Batch(step)
		if err != nil {
			return err
		}

		dStats, err := gan.TrainDiscriminator(batch.Features, batch.Labels)
		if err != nil {
			return err
		}
		gLoss, err := gan.TrainGenerator(batch.Labels)
		if err != nil {
			return err
		}
		window.Record(time.Since(start), dStats.Loss, dStats.Acc, gLoss)

		if cfg.History != nil && cfg.RunID != "" {
			if err := cfg.History.RecordStep(ctx, cfg.RunID, step, dStats.Loss, dStats.Acc, gLoss); err != nil {
				return errors.Wrap(err, "trainer: record step")
			}
		}

		if step%cfg.LogEvery == 0 {
			snap := window.Snapshot()
			logrus.WithFields(logrus.Fields{
				"step":          step,
				"d_loss":        fmt.Sprintf("%.4f", dStats.Loss),
				"d_acc":         fmt.Sprintf("%.2f", dStats.Acc),
				"g_loss":        fmt.Sprintf("%.4f", gLoss),
				"steps_per_sec": fmt.Sprintf("%.1f", snap.StepsPerSec),
			}).Info("train step")
		}

		if cfg.CheckpointInterval > 0 && step%cfg.CheckpointInterval == 0 {
			if err := gan.WriteCheckpoint(cfg.OutputDir, cfg.CheckpointPrefix, step); err != nil {
				return errors.Wrap(err, "trainer: checkpoint")
			}
			if err := writeSamples(gan, cfg.OutputDir, cfg.CheckpointPrefix, step); err != nil {
				return errors.Wrap(err, "trainer: sample dump")
			}
		}
	}

	return nil
}

// writeSamples generates one batch of synthetic rows for eyeballing and
// writes it next to the checkpoints. Purely observational; nothing
// validates the output.
func writeSamples(gan *model.CGAN, outputDir, prefix string, step int) error {
	p := gan.Params()
	labels := make([]float64, p.BatchSize)
	for i := range labels {
		labels[i] = float64(p.Classes[i%len(p.Classes)])
	}
	rows, err := gan.G.Generate(gan.SampleNoise(), labels)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("%s%s_samples_step_%d.csv", outputDir, prefix, step)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	record := make([]string, p.DataDim+1)
	for i := 0; i < p.BatchSize; i++ {
		record[0] = strconv.FormatFloat(labels[i], 'g', -1, 64)
		for j := 0; j < p.DataDim; j++ {
			record[j+1] = strconv.FormatFloat(rows.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
