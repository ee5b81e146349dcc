package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/bootstrap/internal/logger"
	"github.com/born-ml/bootstrap/internal/synth"
	"github.com/born-ml/bootstrap/internal/train"
)

func trainCmd() *cli.Command {
	flags := trainFlags()
	flags = append(flags, dataFlags()...)
	flags = append(flags, lossFlags()...)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:  "train",
		Usage: "Train a linear classifier on synthetic noisy labels",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			applyFlags(c, &cfg)

			log := newLogger(os.Stderr, logFormat, logLevel)
			rep, err := runTrain(logger.WithContext(ctx, log), cfg)
			if err != nil {
				return err
			}

			fmt.Printf("clean accuracy %.4f, noisy accuracy %.4f, loss %.6f\n",
				rep.Final.CleanAccuracy, rep.Final.NoisyAccuracy, rep.Final.Loss)

			if cfg.Report == "" {
				return nil
			}
			if err := writeReport(cfg.Report, rep); err != nil {
				return err
			}
			log.Info("report written", "path", cfg.Report)
			return nil
		},
	}
}

func newLogger(w io.Writer, format, level string) logger.Logger {
	lvl := logger.ParseLevel(level)
	if format == "json" {
		return logger.JSON(w, lvl)
	}
	return logger.Text(w, lvl)
}

// Report is the JSON summary of a training run.
type Report struct {
	RunID     string             `json:"run_id"`
	Mode      string             `json:"mode"`
	Beta      float64            `json:"beta"`
	Normalize bool               `json:"normalize"`
	Samples   int                `json:"samples"`
	Classes   int                `json:"classes"`
	Flipped   int                `json:"flipped"`
	NoiseRate float64            `json:"noise_rate"`
	Final     train.EpochStats   `json:"final"`
	History   []train.EpochStats `json:"history"`
}

// runTrain generates the dataset described by cfg, fits a trainer on its noisy
// labels and summarizes the run. The logger comes from ctx.
func runTrain(ctx context.Context, cfg Config) (*Report, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("run_id", runID)

	ds, err := synth.Generate(cfg.Data)
	if err != nil {
		return nil, err
	}
	log.Info("dataset generated",
		"samples", cfg.Data.Samples,
		"classes", cfg.Data.Classes,
		"flipped", ds.Flipped,
		"noise_rate", ds.NoiseRate(),
	)

	tr, err := train.New(cfg.Data.Features, cfg.Data.Classes, cfg.Train, log)
	if err != nil {
		return nil, err
	}

	history, err := tr.Fit(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	rep := &Report{
		RunID:     runID,
		Mode:      cfg.Train.Loss.Mode(),
		Beta:      cfg.Train.Loss.Beta,
		Normalize: cfg.Train.Loss.Normalize,
		Samples:   cfg.Data.Samples,
		Classes:   cfg.Data.Classes,
		Flipped:   ds.Flipped,
		NoiseRate: ds.NoiseRate(),
		History:   history,
	}
	if len(history) > 0 {
		rep.Final = history[len(history)-1]
	}
	return rep, nil
}

func writeReport(path string, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
