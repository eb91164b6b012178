package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/flood-risk-fusion/internal/fusion"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	// Engine inputs.
	EngineConfigPath string // YAML file with thresholds, tiers, grid, collapse map
	StaticDataPath   string // rating tables + catchment masks
	SVIRasterPath    string // pre-rasterized vulnerability grid

	// NWM object-store retriever (alternative forecast source to Kafka).
	NWMEnabled   bool
	NWMBaseURL   string
	NWMHUC       string
	NWMTimeout   time.Duration
	NWMRPS       float64
	NWMCacheSize int
	PollInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. Engine thresholds never come from here: they live in the
// required engine YAML file so they are explicit, reviewed input.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	nwmTimeout, err := parseDuration("NWM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("POLL_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}

	nwmBaseURL := os.Getenv("NWM_BASE_URL")
	nwmEnabled := nwmBaseURL != ""
	if v := os.Getenv("NWM_ENABLED"); v != "" {
		nwmEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "forecast-cycles"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "flood-risk-stats"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "flood-risk-fusion"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		EngineConfigPath: os.Getenv("ENGINE_CONFIG"),
		StaticDataPath:   os.Getenv("STATIC_DATA"),
		SVIRasterPath:    os.Getenv("SVI_RASTER"),

		NWMEnabled:   nwmEnabled,
		NWMBaseURL:   nwmBaseURL,
		NWMHUC:       os.Getenv("NWM_HUC"),
		NWMTimeout:   nwmTimeout,
		NWMRPS:       parseFloat("NWM_RPS", 2),
		NWMCacheSize: parseInt("NWM_CACHE_SIZE", 8),
		PollInterval: pollInterval,
	}

	if cfg.EngineConfigPath == "" {
		return nil, errors.New("ENGINE_CONFIG is required")
	}
	if cfg.StaticDataPath == "" {
		return nil, errors.New("STATIC_DATA is required")
	}
	if cfg.SVIRasterPath == "" {
		return nil, errors.New("SVI_RASTER is required")
	}
	if cfg.NWMEnabled {
		if cfg.NWMBaseURL == "" {
			return nil, errors.New("NWM_ENABLED is true but NWM_BASE_URL is not set")
		}
		if cfg.NWMHUC == "" {
			return nil, errors.New("NWM_ENABLED is true but NWM_HUC is not set")
		}
	} else if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}

	return cfg, nil
}

// LoadEngineConfig parses the engine YAML file. Validation is strict:
// severity thresholds and the vulnerability tier count are required, with no
// silent defaults (they vary by region and flood-frequency context).
func LoadEngineConfig(path string) (fusion.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fusion.Config{}, fmt.Errorf("read engine config: %w", err)
	}
	var cfg fusion.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fusion.Config{}, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fusion.Config{}, fmt.Errorf("engine config %s: %w", path, err)
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseFloat(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
