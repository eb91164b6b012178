package nwm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

type stubFetcher struct {
	calls      atomic.Int64
	notYet     int64 // first N calls report not published
	cycleForID func(ref time.Time) domain.ForecastCycle
}

func (s *stubFetcher) FetchCycle(_ context.Context, ref time.Time) (domain.ForecastCycle, error) {
	n := s.calls.Add(1)
	if n <= s.notYet {
		return domain.ForecastCycle{}, ErrCycleNotPublished
	}
	return s.cycleForID(ref), nil
}

func cycleAt(ref time.Time) domain.ForecastCycle {
	return domain.ForecastCycle{ID: ref.Format("2006010215"), ReferenceTime: ref}
}

func TestPollerDeliversCurrentCycle(t *testing.T) {
	start := time.Date(2026, 4, 26, 12, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	fetcher := &stubFetcher{cycleForID: cycleAt}
	p := NewPoller(fetcher, 4, time.Minute, clock, testLogger())

	cycle, err := p.NextCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026042612", cycle.ID, "reference time truncates to the hour")
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestPollerWaitsForPublication(t *testing.T) {
	start := time.Date(2026, 4, 26, 12, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	fetcher := &stubFetcher{notYet: 1, cycleForID: cycleAt}
	p := NewPoller(fetcher, 4, time.Minute, clock, testLogger())

	type result struct {
		cycle domain.ForecastCycle
		err   error
	}
	done := make(chan result, 1)
	go func() {
		c, err := p.NextCycle(context.Background())
		done <- result{c, err}
	}()

	// First fetch reports not-published; advance past the poll interval so
	// the retry fires.
	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.NotEmpty(t, r.cycle.ID)
		assert.GreaterOrEqual(t, fetcher.calls.Load(), int64(2))
	case <-time.After(5 * time.Second):
		t.Fatal("poller never delivered the cycle")
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	start := time.Date(2026, 4, 26, 12, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	fetcher := &stubFetcher{notYet: 1 << 30, cycleForID: cycleAt}
	p := NewPoller(fetcher, 4, time.Minute, clock, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := p.NextCycle(ctx)
		errCh <- err
	}()

	clock.BlockUntil(1)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestCycleCacheEvictsLRU(t *testing.T) {
	c := newCycleCache(2)
	t1 := time.Date(2026, 4, 26, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	c.put(t1, cycleAt(t1))
	c.put(t2, cycleAt(t2))

	// Touch t1 so t2 becomes least recently used.
	_, ok := c.get(t1)
	require.True(t, ok)

	c.put(t3, cycleAt(t3))

	_, ok = c.get(t2)
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = c.get(t1)
	assert.True(t, ok)
	_, ok = c.get(t3)
	assert.True(t, ok)
}
