package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
	"github.com/couchcryptid/flood-risk-fusion/internal/fusion"
	"github.com/couchcryptid/flood-risk-fusion/internal/observability"
)

// CycleSource yields the next forecast cycle to fuse, blocking until one is
// available or the context ends.
type CycleSource interface {
	NextCycle(ctx context.Context) (domain.ForecastCycle, error)
}

// Fuser runs one forecast cycle through the fusion engine.
type Fuser interface {
	FuseCycle(ctx context.Context, cycle domain.ForecastCycle, vuln *domain.Raster) (*fusion.Result, error)
}

// StatsSink publishes a cycle's summary statistics record.
type StatsSink interface {
	PublishStats(ctx context.Context, stats fusion.Stats) error
}

// Pipeline orchestrates the fetch-fuse-publish loop: one forecast cycle per
// iteration, no state carried between cycles.
type Pipeline struct {
	source  CycleSource
	fuser   Fuser
	sink    StatsSink
	vuln    *domain.Raster
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given stages and observability. The
// vulnerability raster is loaded once per process and shared read-only across
// cycles.
func New(source CycleSource, fuser Fuser, sink StatsSink, vuln *domain.Raster, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		fuser:   fuser,
		sink:    sink,
		vuln:    vuln,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one cycle has been fused.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no forecast cycle fused yet")
	}
	return nil
}

// Run executes the fusion loop until the context is cancelled. Source and
// sink failures back off and retry; engine aborts (bad configuration or
// schema) are logged with their stage and key and the cycle is skipped, since
// the next cycle may be well-formed.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("fusion pipeline started")
	p.metrics.ServiceRunning.Set(1)
	defer p.metrics.ServiceRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("fusion pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processCycle(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processCycle runs one fetch-fuse-publish iteration. Returns false if the
// pipeline should stop.
func (p *Pipeline) processCycle(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	cycle, err := p.source.NextCycle(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("fetch cycle failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.CyclesConsumed.Inc()
	*backoff = 200 * time.Millisecond

	start := time.Now()
	result, err := p.fuser.FuseCycle(ctx, cycle, p.vuln)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		var stageErr *domain.StageError
		stage := "unknown"
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		p.metrics.CycleFailures.WithLabelValues(stage).Inc()
		p.logger.Error("cycle aborted", "cycle", cycle.ID, "stage", stage, "error", err)
		return true
	}

	p.metrics.CyclesFused.Inc()
	p.metrics.FuseDuration.Observe(time.Since(start).Seconds())
	p.metrics.PriorityReaches.Set(float64(len(result.Stats.PriorityReaches)))
	p.observeRisk(result)

	if err := p.sink.PublishStats(ctx, result.Stats); err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("publish stats failed", "cycle", cycle.ID, "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.StatsPublished.Inc()
	p.ready.Store(true)
	return true
}

func (p *Pipeline) observeRisk(result *fusion.Result) {
	valid := 0
	for _, s := range result.Stats.Classes {
		valid += s.Pixels
	}
	p.metrics.RiskPixels.Set(float64(valid))
	for _, w := range result.Stats.Warnings {
		p.metrics.WarningsTotal.WithLabelValues(w.Code).Inc()
	}
}

// backoffOrStop sleeps for the current backoff (doubling it up to the cap),
// returning false if the context ends first.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
	}
	*backoff *= 2
	if *backoff > maxBackoff {
		*backoff = maxBackoff
	}
	return true
}
