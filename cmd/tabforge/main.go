package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tabforge/internal/config"
	"tabforge/internal/dataset"
	"tabforge/internal/history"
	"tabforge/internal/model"
	"tabforge/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/demo.yaml", "Path to YAML config")
	dataPath := flag.String("data", "", "Override dataset CSV path")
	steps := flag.Int("steps", 0, "Number of training steps")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	seed := flag.Int64("seed", 0, "PRNG seed")
	logEvery := flag.Int("log-every", 0, "Log every N steps")
	outputDir := flag.String("output-dir", "", "Override checkpoint output directory")
	historyPath := flag.String("history", "", "Override run-history SQLite path")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		DataPath:    *dataPath,
		Steps:       *steps,
		BatchSize:   *batchSize,
		Seed:        *seed,
		LogEvery:    *logEvery,
		OutputDir:   *outputDir,
		HistoryPath: *historyPath,
	})

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}

	table, err := dataset.LoadCSV(cfg.DataPath, cfg.LabelColumn)
	if err != nil {
		logrus.Fatalf("failed to load dataset: %v", err)
	}
	if table.NumFeatures() != cfg.DataDim {
		logrus.Fatalf("dataset has %d feature columns, config expects %d", table.NumFeatures(), cfg.DataDim)
	}
	logrus.WithFields(logrus.Fields{
		"rows":     table.NumRows(),
		"features": table.NumFeatures(),
	}).Info("dataset loaded")

	sampler, err := dataset.NewSampler(table, cfg.BatchSize, cfg.Seed)
	if err != nil {
		logrus.Fatalf("failed to build sampler: %v", err)
	}

	gan, err := model.New(model.Params{
		BatchSize:    cfg.BatchSize,
		LearningRate: cfg.LearningRate,
		NoiseDim:     cfg.NoiseDim,
		DataDim:      cfg.DataDim,
		NumClasses:   cfg.NumClasses,
		Classes:      cfg.Classes,
		LayerWidth:   cfg.LayerWidth,
	}, uint64(cfg.Seed))
	if err != nil {
		logrus.Fatalf("failed to build model: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg := trainer.RunConfig{
		Steps:              cfg.Steps,
		LogEvery:           cfg.LogEvery,
		CheckpointPrefix:   cfg.CheckpointPrefix,
		CheckpointInterval: cfg.CheckpointInterval,
		OutputDir:          cfg.OutputDir,
	}

	if cfg.HistoryPath != "" {
		store, err := history.Open(ctx, cfg.HistoryPath)
		if err != nil {
			logrus.Fatalf("failed to open run history: %v", err)
		}
		defer store.Close()

		runCfg.RunID = uuid.NewString()
		runCfg.History = store
		if err := store.StartRun(ctx, runCfg.RunID, cfg.CheckpointPrefix); err != nil {
			logrus.Fatalf("failed to register run: %v", err)
		}
		logrus.WithField("run_id", runCfg.RunID).Info("run history enabled")
	}

	if err := trainer.Run(ctx, gan, sampler, runCfg); err != nil {
		logrus.Fatalf("training failed: %v", err)
	}
}
