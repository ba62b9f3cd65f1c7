package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gptlab/internal/config"
)

func setFlags(t *testing.T, preset, cfgPath, variant string, seed int64) {
	t.Helper()
	old := []any{*flagPreset, *flagConfig, *flagVariant, *flagSeed}
	*flagPreset, *flagConfig, *flagVariant, *flagSeed = preset, cfgPath, variant, seed
	t.Cleanup(func() {
		*flagPreset = old[0].(string)
		*flagConfig = old[1].(string)
		*flagVariant = old[2].(string)
		*flagSeed = old[3].(int64)
	})
}

func TestLoadConfig_Preset(t *testing.T) {
	setFlags(t, config.PresetScaled, "", "", -1)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Scaled(), cfg)
}

func TestLoadConfig_FileBuildsOnPresetFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_iters: 5\n"), 0o600))

	setFlags(t, config.PresetScaled, path, "", -1)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 384, cfg.NEmbd)
	assert.Equal(t, 5, cfg.MaxIters)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setFlags(t, config.PresetSmall, "", config.VariantLinear, 7)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.VariantLinear, cfg.Variant)
	assert.Equal(t, uint64(7), cfg.Seed)

	setFlags(t, config.PresetSmall, "", "rnn", -1)
	_, err = loadConfig()
	assert.ErrorIs(t, err, config.ErrInvalid)
}
