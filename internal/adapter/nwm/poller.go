package nwm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// ErrCycleNotPublished means the forecast file for the requested reference
// time is not in the object store yet.
var ErrCycleNotPublished = errors.New("forecast cycle not published yet")

// CycleFetcher retrieves the forecast batch for one reference time.
type CycleFetcher interface {
	FetchCycle(ctx context.Context, ref time.Time) (domain.ForecastCycle, error)
}

// Poller turns the pull-style NWM endpoint into a pipeline.CycleSource: it
// waits for each new hourly forecast cycle to appear and hands it over
// exactly once. Already-delivered cycles are cached so a downstream retry
// does not refetch the file.
type Poller struct {
	fetcher  CycleFetcher
	cache    *cycleCache
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	lastRef time.Time
}

// NewPoller creates a poller checking for new cycles every interval.
func NewPoller(fetcher CycleFetcher, cacheSize int, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		cache:    newCycleCache(cacheSize),
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// NextCycle blocks until a forecast cycle newer than the last delivered one
// is available, or the context ends.
func (p *Poller) NextCycle(ctx context.Context) (domain.ForecastCycle, error) {
	for {
		ref := p.clock.Now().UTC().Truncate(time.Hour)
		if ref.After(p.lastRef) {
			cycle, err := p.fetch(ctx, ref)
			switch {
			case err == nil:
				p.lastRef = ref
				return cycle, nil
			case errors.Is(err, ErrCycleNotPublished):
				p.logger.Debug("cycle not published yet", "reference_time", ref)
			default:
				return domain.ForecastCycle{}, err
			}
		}

		select {
		case <-ctx.Done():
			return domain.ForecastCycle{}, ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}
}

func (p *Poller) fetch(ctx context.Context, ref time.Time) (domain.ForecastCycle, error) {
	if cycle, ok := p.cache.get(ref); ok {
		return cycle, nil
	}
	cycle, err := p.fetcher.FetchCycle(ctx, ref)
	if err != nil {
		return domain.ForecastCycle{}, err
	}
	p.cache.put(ref, cycle)
	return cycle, nil
}
