package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBootstrapConfigYAML(t *testing.T) {
	doc := []byte(`
ignore_label: 255
normalize: false
hard_mode: true
beta: 0.8
axis: -1
`)
	cfg := DefaultBootstrapConfig()
	require.NoError(t, yaml.Unmarshal(doc, &cfg))

	require.NotNil(t, cfg.IgnoreLabel)
	assert.Equal(t, int32(255), *cfg.IgnoreLabel)
	assert.False(t, cfg.Normalize)
	assert.True(t, cfg.HardMode)
	assert.InDelta(t, 0.8, cfg.Beta, 0)
	assert.Equal(t, -1, cfg.Axis)
	assert.Equal(t, "hard", cfg.Mode())
}

func TestBootstrapConfigYAMLKeepsDefaults(t *testing.T) {
	cfg := DefaultBootstrapConfig()
	require.NoError(t, yaml.Unmarshal([]byte("beta: 0.6\n"), &cfg))

	assert.Nil(t, cfg.IgnoreLabel)
	assert.True(t, cfg.Normalize)
	assert.Equal(t, 1, cfg.Axis)
	assert.Equal(t, "soft", cfg.Mode())
}

func TestBootstrapConfigParams(t *testing.T) {
	p := DefaultBootstrapConfig().params()
	assert.False(t, p.HasIgnoreLabel)

	p = DefaultBootstrapConfig().WithIgnoreLabel(-1).params()
	assert.True(t, p.HasIgnoreLabel)
	assert.Equal(t, int32(-1), p.IgnoreLabel)
	assert.InDelta(t, 0.95, p.Beta, 0)
}

func TestBootstrapConfigValidate(t *testing.T) {
	cfg := DefaultBootstrapConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Beta = 1.5
	assert.NoError(t, cfg.Validate(), "out-of-range beta is only logged")

	cfg.Beta = math.Inf(1)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
