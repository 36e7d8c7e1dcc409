package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Simulation.Mode = "attack_favor"
	cfg.Reporting.OutputDir = "/tmp/xsim-out"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "attack_favor", loaded.Simulation.Mode)
	assert.Equal(t, "/tmp/xsim-out", loaded.Reporting.OutputDir)
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.Mode = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyOutputDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reporting.OutputDir = ""
	assert.Error(t, cfg.Validate())
}
