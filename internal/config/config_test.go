package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENGINE_CONFIG", "engine.yaml")
	t.Setenv("STATIC_DATA", "catalog.json")
	t.Setenv("SVI_RASTER", "svi.json")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequiredEnv(t)
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "forecast-cycles", cfg.KafkaSourceTopic)
		assert.Equal(t, "flood-risk-stats", cfg.KafkaSinkTopic)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.False(t, cfg.NWMEnabled)
	})

	t.Run("missing engine config path", func(t *testing.T) {
		t.Setenv("ENGINE_CONFIG", "")
		t.Setenv("STATIC_DATA", "catalog.json")
		t.Setenv("SVI_RASTER", "svi.json")
		_, err := Load()
		assert.ErrorContains(t, err, "ENGINE_CONFIG")
	})

	t.Run("nwm base url implies nwm source", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("NWM_BASE_URL", "https://example.com/nwm")
		t.Setenv("NWM_HUC", "03010400")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.NWMEnabled)
	})

	t.Run("nwm enabled without huc", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("NWM_BASE_URL", "https://example.com/nwm")
		_, err := Load()
		assert.ErrorContains(t, err, "NWM_HUC")
	})

	t.Run("bad poll interval", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("POLL_INTERVAL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "POLL_INTERVAL")
	})

	t.Run("broker list parsing", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092 ,")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.KafkaBrokers)
	})
}

func writeEngineYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEngineConfig(t *testing.T) {
	t.Run("complete config", func(t *testing.T) {
		path := writeEngineYAML(t, `
severity_thresholds:
  moderate: 0.4
  high: 0.8
  very_high: 1.8
vulnerability_tiers: 4
collapse_map: [0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3]
workers: 4
`)
		cfg, err := LoadEngineConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 0.4, cfg.Severity.Moderate)
		assert.Equal(t, 1.8, cfg.Severity.VeryHigh)
		assert.Equal(t, 4, cfg.VulnerabilityTiers)
		assert.Len(t, cfg.CollapseMap, 16)
		assert.Nil(t, cfg.TargetGrid)
	})

	t.Run("target grid pinned", func(t *testing.T) {
		path := writeEngineYAML(t, `
severity_thresholds:
  moderate: 0.4
  high: 0.8
  very_high: 1.8
vulnerability_tiers: 4
target_grid:
  epsg: 5070
  origin_x: 1500000
  origin_y: 1600000
  cell_size: 30
  rows: 120
  cols: 120
`)
		cfg, err := LoadEngineConfig(path)
		require.NoError(t, err)
		require.NotNil(t, cfg.TargetGrid)
		assert.Equal(t, 5070, cfg.TargetGrid.EPSG)
		assert.Equal(t, 30.0, cfg.TargetGrid.CellSize)
	})

	t.Run("missing thresholds is not defaulted", func(t *testing.T) {
		path := writeEngineYAML(t, "vulnerability_tiers: 4\n")
		_, err := LoadEngineConfig(path)
		assert.ErrorIs(t, err, domain.ErrMissingConfiguration)
	})

	t.Run("missing tier count is not defaulted", func(t *testing.T) {
		path := writeEngineYAML(t, `
severity_thresholds:
  moderate: 0.4
  high: 0.8
  very_high: 1.8
`)
		_, err := LoadEngineConfig(path)
		assert.ErrorIs(t, err, domain.ErrMissingConfiguration)
	})

	t.Run("non-monotonic collapse map rejected", func(t *testing.T) {
		path := writeEngineYAML(t, `
severity_thresholds:
  moderate: 0.4
  high: 0.8
  very_high: 1.8
vulnerability_tiers: 2
collapse_map: [0, 1, 2, 1, 3, 3, 3, 3]
`)
		_, err := LoadEngineConfig(path)
		assert.ErrorContains(t, err, "monotonically")
	})

	t.Run("wrong collapse map length rejected", func(t *testing.T) {
		path := writeEngineYAML(t, `
severity_thresholds:
  moderate: 0.4
  high: 0.8
  very_high: 1.8
vulnerability_tiers: 4
collapse_map: [0, 1, 2]
`)
		_, err := LoadEngineConfig(path)
		assert.ErrorContains(t, err, "16 entries")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
