package fusion

import (
	"fmt"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// SeverityThresholds are the depth class boundaries in meters. A depth d maps
// to: none/low for d ≤ Moderate, moderate for d ≤ High, high for d ≤ VeryHigh,
// very-high above that. Thresholds vary by region and flood-frequency context,
// so they are required input with no compiled-in default.
type SeverityThresholds struct {
	Moderate float64 `yaml:"moderate" json:"moderate"`
	High     float64 `yaml:"high" json:"high"`
	VeryHigh float64 `yaml:"very_high" json:"very_high"`
}

// Config holds the engine settings for one fusion run. Loaded from the engine
// YAML file by the config package; every field without an omitempty-style
// default is required and validated before the first cycle.
type Config struct {
	// Severity holds the 4-class depth boundaries. Required.
	Severity *SeverityThresholds `yaml:"severity_thresholds" json:"severity_thresholds"`

	// VulnerabilityTiers is the quantile count for vulnerability tiering.
	// Required; quartiles (4) are the conventional choice.
	VulnerabilityTiers int `yaml:"vulnerability_tiers" json:"vulnerability_tiers"`

	// TargetGrid pins the alignment grid. Nil means "derive from the
	// intersection of both input extents at the finer resolution".
	TargetGrid *domain.GridDef `yaml:"target_grid,omitempty" json:"target_grid,omitempty"`

	// CollapseMap optionally collapses the joint severity×vulnerability class
	// space (indices 0..4*VulnerabilityTiers-1) into fewer published bands.
	// Must be monotonically non-decreasing so risk stays non-decreasing in
	// both inputs. Empty means publish the joint classes directly.
	CollapseMap []int16 `yaml:"collapse_map,omitempty" json:"collapse_map,omitempty"`

	// Workers bounds the fan-out for rasterization and quantile scans.
	// Zero means GOMAXPROCS.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// JointClasses returns the size of the severity×vulnerability class space.
func (c *Config) JointClasses() int { return severityClasses * c.VulnerabilityTiers }

// Validate checks that all required settings are present and coherent.
// Missing settings are an error, never silently defaulted.
func (c *Config) Validate() error {
	if c.Severity == nil {
		return fmt.Errorf("%w: severity_thresholds", domain.ErrMissingConfiguration)
	}
	t := c.Severity
	if !(0 < t.Moderate && t.Moderate < t.High && t.High < t.VeryHigh) {
		return fmt.Errorf("%w: severity thresholds must satisfy 0 < moderate < high < very_high, got %g/%g/%g",
			domain.ErrMissingConfiguration, t.Moderate, t.High, t.VeryHigh)
	}
	if c.VulnerabilityTiers < 2 {
		return fmt.Errorf("%w: vulnerability_tiers must be at least 2, got %d",
			domain.ErrMissingConfiguration, c.VulnerabilityTiers)
	}
	if c.TargetGrid != nil {
		if err := c.TargetGrid.Validate(); err != nil {
			return fmt.Errorf("target_grid: %w", err)
		}
	}
	if len(c.CollapseMap) > 0 {
		if len(c.CollapseMap) != c.JointClasses() {
			return fmt.Errorf("collapse_map must have %d entries (one per joint class), got %d",
				c.JointClasses(), len(c.CollapseMap))
		}
		for i, v := range c.CollapseMap {
			if v < 0 {
				return fmt.Errorf("collapse_map[%d] is negative", i)
			}
			if i > 0 && v < c.CollapseMap[i-1] {
				return fmt.Errorf("collapse_map must be monotonically non-decreasing, entry %d drops %d -> %d",
					i, c.CollapseMap[i-1], v)
			}
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
