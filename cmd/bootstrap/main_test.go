package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bootstrap/internal/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	content := `
data:
  samples: 120
  noise_rate: 0.4
train:
  epochs: 10
  loss:
    beta: 0.8
    hard_mode: true
    ignore_label: 255
report: out.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Data.Samples)
	assert.InDelta(t, 0.4, cfg.Data.NoiseRate, 1e-12)
	assert.Equal(t, 8, cfg.Data.Features, "unset keys keep their defaults")
	assert.Equal(t, 10, cfg.Train.Epochs)
	assert.InDelta(t, 0.8, cfg.Train.Loss.Beta, 1e-12)
	assert.True(t, cfg.Train.Loss.HardMode)
	assert.True(t, cfg.Train.Loss.Normalize)
	require.NotNil(t, cfg.Train.Loss.IgnoreLabel)
	assert.Equal(t, int32(255), *cfg.Train.Loss.IgnoreLabel)
	assert.Equal(t, "out.json", cfg.Report)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [1, 2"), 0o600))
	_, err = loadConfig(path)
	require.Error(t, err)
}

func TestRunTrainWritesReport(t *testing.T) {
	cfg := defaultConfig()
	cfg.Data.Samples = 80
	cfg.Train.Epochs = 5
	cfg.Train.LogEvery = 1

	var logs bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.JSON(&logs, slog.LevelInfo))

	rep, err := runTrain(ctx, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "soft", rep.Mode)
	assert.Len(t, rep.History, 5)
	assert.Equal(t, rep.History[4], rep.Final)
	assert.Contains(t, logs.String(), `"run_id":"`+rep.RunID+`"`)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, writeReport(path, rep))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rep.RunID, decoded.RunID)
	assert.Equal(t, rep.Flipped, decoded.Flipped)
	assert.Len(t, decoded.History, 5)
}

func TestRunTrainRejectsBadData(t *testing.T) {
	cfg := defaultConfig()
	cfg.Data.Classes = 1

	_, err := runTrain(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", "debug").Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	newLogger(&buf, "text", "warn").Info("hidden")
	assert.Empty(t, buf.String())
}
