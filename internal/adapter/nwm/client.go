// Package nwm retrieves National Water Model max-discharge forecast files
// from an object-store HTTP endpoint. This is the external-collaborator
// boundary: timeouts and cancellation apply here, never inside the engine.
package nwm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// Client fetches one max-discharge forecast file per cycle for a study HUC.
// Requests are rate-limited to stay polite against the public bucket.
type Client struct {
	baseURL string
	huc     string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a rate-limited NWM forecast client. rps may be
// fractional for less than one request per second.
func NewClient(baseURL, huc string, timeout time.Duration, rps float64, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		huc:     huc,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// FetchCycle retrieves the max-discharge batch for the forecast cycle at the
// given reference time. A 404 means the cycle is not published yet.
func (c *Client) FetchCycle(ctx context.Context, ref time.Time) (domain.ForecastCycle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ForecastCycle{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	url := fmt.Sprintf("%s/short_range/%s/%s/max_discharge.json",
		c.baseURL, c.huc, ref.UTC().Format("2006010215"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ForecastCycle{}, fmt.Errorf("build nwm request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ForecastCycle{}, fmt.Errorf("fetch nwm cycle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ForecastCycle{}, ErrCycleNotPublished
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ForecastCycle{}, fmt.Errorf("nwm endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return domain.ForecastCycle{}, fmt.Errorf("read nwm response: %w", err)
	}

	var cycle domain.ForecastCycle
	if err := json.Unmarshal(body, &cycle); err != nil {
		return domain.ForecastCycle{}, fmt.Errorf("parse nwm cycle %s: %w", ref.Format(time.RFC3339), err)
	}
	if cycle.ID == "" {
		cycle.ID = fmt.Sprintf("%s-%s", c.huc, ref.UTC().Format("2006010215"))
	}
	if cycle.ReferenceTime.IsZero() {
		cycle.ReferenceTime = ref.UTC()
	}

	c.logger.Debug("nwm cycle fetched", "cycle", cycle.ID, "samples", len(cycle.Samples))
	return cycle, nil
}
