package fusion

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// Stats is the summary statistics record emitted with each risk raster.
type Stats struct {
	RunID         string    `json:"run_id"`
	CycleID       string    `json:"cycle_id"`
	ReferenceTime time.Time `json:"reference_time"`
	GeneratedAt   time.Time `json:"generated_at"`

	Grid                domain.GridDef   `json:"grid"`
	VulnerabilityBreaks []float64        `json:"vulnerability_breaks"`
	Classes             []ClassStat      `json:"classes"`
	PriorityReaches     []domain.ReachID `json:"priority_reaches"`
	Warnings            []Warning        `json:"warnings,omitempty"`
}

// Result bundles everything one fusion run produces for its collaborators:
// the depth raster for rendering, the classified risk raster, and the summary
// statistics record.
type Result struct {
	Depth *domain.Raster
	Risk  *RiskRaster
	Stats Stats
}

// Engine runs the fusion stage chain for one forecast cycle at a time. The
// static lookup tables are passed in at construction and never mutated, so
// concurrent cycles on separate engines cannot interfere. The engine keeps no
// state between cycles.
type Engine struct {
	static *domain.StaticData
	cfg    Config
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewEngine validates the configuration and static data and returns a ready
// engine. Incomplete configuration fails here, before any cycle runs.
func NewEngine(static *domain.StaticData, cfg Config, logger *slog.Logger, clock clockwork.Clock) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, domain.NewStageError("config", "engine", err)
	}
	if err := static.Validate(); err != nil {
		return nil, domain.NewStageError("config", "static data", err)
	}
	return &Engine{static: static, cfg: cfg, logger: logger, clock: clock}, nil
}

// FuseCycle runs one forecast cycle through the full stage chain: rating
// resolution, depth rasterization, severity classification, alignment with
// the vulnerability raster, and risk fusion. Configuration and schema errors
// abort the cycle with stage and key attribution; per-pixel anomalies are
// resolved by policy and accumulated as warnings in the stats.
func (e *Engine) FuseCycle(ctx context.Context, cycle domain.ForecastCycle, vuln *domain.Raster) (*Result, error) {
	if vuln.AllNoData() {
		return nil, domain.NewStageError("align", "vulnerability", domain.ErrEmptyInput)
	}

	depths, warnings, err := ResolveCycle(e.static, cycle, e.cfg.Workers)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("rating curves resolved", "cycle", cycle.ID, "reaches", len(depths))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	depth, rasterWarns := RasterizeDepths(e.static, depths, e.cfg.Workers)
	warnings = append(warnings, rasterWarns...)

	severity := ClassifySeverity(depth, *e.cfg.Severity)

	pair, err := Align(severity, vuln, e.cfg.TargetGrid, e.logger)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	breaks, err := QuantileBreaks(pair.Vulnerability, e.cfg.VulnerabilityTiers, e.cfg.Workers)
	if err != nil {
		return nil, domain.NewStageError("fuse", "vulnerability", err)
	}

	risk, classStats, err := Fuse(pair, breaks, e.cfg)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		RunID:               uuid.NewString(),
		CycleID:             cycle.ID,
		ReferenceTime:       cycle.ReferenceTime,
		GeneratedAt:         e.clock.Now().UTC(),
		Grid:                pair.Grid,
		VulnerabilityBreaks: breaks,
		Classes:             classStats,
		PriorityReaches:     PriorityReaches(depths, *e.cfg.Severity),
		Warnings:            warnings,
	}

	e.logger.Info("cycle fused",
		"cycle", cycle.ID,
		"run_id", stats.RunID,
		"classes", len(classStats),
		"priority_reaches", len(stats.PriorityReaches),
		"warnings", len(warnings),
	)

	return &Result{Depth: depth, Risk: risk, Stats: stats}, nil
}
