package nwm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientFetchCycle(t *testing.T) {
	ref := time.Date(2026, 4, 26, 12, 0, 0, 0, time.UTC)

	t.Run("fetches and parses a published cycle", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			fmt.Fprint(w, `{"samples":[{"reach_id":"030104000001","max_discharge":88.5}]}`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "03010400", 5*time.Second, 100, testLogger())
		cycle, err := c.FetchCycle(context.Background(), ref)
		require.NoError(t, err)

		assert.Equal(t, "/short_range/03010400/2026042612/max_discharge.json", gotPath)
		assert.Equal(t, "03010400-2026042612", cycle.ID, "ID synthesized when payload omits it")
		assert.Equal(t, ref, cycle.ReferenceTime)
		require.Len(t, cycle.Samples, 1)
		assert.Equal(t, 88.5, cycle.Samples[0].MaxDischarge)
	})

	t.Run("404 means not published yet", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "03010400", 5*time.Second, 100, testLogger())
		_, err := c.FetchCycle(context.Background(), ref)
		assert.ErrorIs(t, err, ErrCycleNotPublished)
	})

	t.Run("server error surfaces status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "03010400", 5*time.Second, 100, testLogger())
		_, err := c.FetchCycle(context.Background(), ref)
		assert.ErrorContains(t, err, "502")
	})

	t.Run("malformed payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `not json`)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "03010400", 5*time.Second, 100, testLogger())
		_, err := c.FetchCycle(context.Background(), ref)
		assert.ErrorContains(t, err, "parse nwm cycle")
	})
}
