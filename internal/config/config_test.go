package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100.0, cfg.Gameplay.InitialOxygen)
	assert.Equal(t, 3, cfg.Gameplay.MaxActiveLoans)
	assert.Equal(t, 5, cfg.Repair.MaterialsCostMin)
	assert.Equal(t, 10, cfg.Repair.MaterialsCostMax)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
gameplay:
  initial_oxygen: 40
  max_active_loans: 2
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Gameplay.InitialOxygen)
	assert.Equal(t, 2, cfg.Gameplay.MaxActiveLoans)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 100.0, cfg.Gameplay.MaxOxygen)
	assert.Equal(t, 1.0, cfg.Gameplay.OxygenConsumptionPerTurn)
}

func TestParseAcceptsJSON(t *testing.T) {
	cfg := Default()
	data := []byte(`{"gameplay": {"initial_oxygen": 5.0, "victory_repair_threshold": 100.0}}`)
	require.NoError(t, Parse(data, &cfg))
	assert.Equal(t, 5.0, cfg.Gameplay.InitialOxygen)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ASTRODEBT_GAMEPLAY_INITIAL_OXYGEN", "55")
	t.Setenv("ASTRODEBT_GAME_SEED", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 55.0, cfg.Gameplay.InitialOxygen)
	assert.Equal(t, uint64(42), cfg.Game.Seed)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"initial oxygen above max", func(c *Config) { c.Gameplay.InitialOxygen = 150 }},
		{"no loans allowed", func(c *Config) { c.Gameplay.MaxActiveLoans = 0 }},
		{"inverted repair cost", func(c *Config) { c.Repair.MaterialsCostMax = 2 }},
		{"inverted action cost", func(c *Config) { c.Actions.OxygenCostMin = 20 }},
		{"threshold above 100", func(c *Config) { c.Gameplay.VictoryRepairThreshold = 120 }},
		{"zero fps", func(c *Config) { c.Game.FPS = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gameplay: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDotEnvKeepsProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ASTRODEBT_DOTENV_PROBE=file\nASTRODEBT_DOTENV_SET=file\n"), 0o644))
	t.Setenv("ASTRODEBT_DOTENV_SET", "process")
	t.Cleanup(func() { _ = os.Unsetenv("ASTRODEBT_DOTENV_PROBE") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "file", os.Getenv("ASTRODEBT_DOTENV_PROBE"))
	assert.Equal(t, "process", os.Getenv("ASTRODEBT_DOTENV_SET"))

	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
