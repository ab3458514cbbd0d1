package geocode

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *NominatimClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNominatimClient(Config{BaseURL: srv.URL, Timeout: timeout}, srv.Client(), discardLogger())
}

func TestNominatimClient_Geocode(t *testing.T) {
	ctx := context.Background()

	t.Run("success folds display name", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Paris", r.URL.Query().Get("q"))
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, Île-de-France, France métropolitaine, France"}]`))
		}, time.Second)

		got := c.Geocode(ctx, "Paris")
		require.NotNil(t, got)
		assert.InDelta(t, 48.8566, got.Latitude, 1e-9)
		assert.InDelta(t, 2.3522, got.Longitude, 1e-9)
		assert.Equal(t, "Paris, Ile-de-France, France metropolitaine, France", got.DisplayName)
	})

	t.Run("empty result is not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}, time.Second)
		assert.Nil(t, c.Geocode(ctx, "Zzqqxxnotaplace"))
	})

	t.Run("non 200 is absorbed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, time.Second)
		assert.Nil(t, c.Geocode(ctx, "Paris"))
	})

	t.Run("malformed payload is absorbed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}, time.Second)
		assert.Nil(t, c.Geocode(ctx, "Paris"))
	})

	t.Run("bad coordinate is absorbed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"2.3","display_name":"Paris"}]`))
		}, time.Second)
		assert.Nil(t, c.Geocode(ctx, "Paris"))
	})

	t.Run("timeout is absorbed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-r.Context().Done():
			}
		}, 50*time.Millisecond)
		assert.Nil(t, c.Geocode(ctx, "Paris"))
	})

	t.Run("blank display name falls back to query", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"35.68","lon":"139.69","display_name":"東京"}]`))
		}, time.Second)
		got := c.Geocode(ctx, "Tokyo")
		require.NotNil(t, got)
		assert.Equal(t, "Tokyo", got.DisplayName)
	})
}

type countingGeocoder struct {
	calls atomic.Int32
}

func (c *countingGeocoder) Name() string { return "counting" }

func (c *countingGeocoder) Geocode(ctx context.Context, place string) *types.GeoPoint {
	c.calls.Add(1)
	return &types.GeoPoint{DisplayName: place}
}

func TestRateLimitedGeocoder(t *testing.T) {
	t.Run("spaces consecutive requests", func(t *testing.T) {
		inner := &countingGeocoder{}
		g := NewRateLimitedGeocoder(inner, 100*time.Millisecond, discardLogger())
		assert.Equal(t, "counting [Rate Limited]", g.Name())

		start := time.Now()
		require.NotNil(t, g.Geocode(context.Background(), "Paris"))
		require.NotNil(t, g.Geocode(context.Background(), "Lyon"))
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
		assert.Equal(t, int32(2), inner.calls.Load())
	})

	t.Run("cancelled wait returns nil without calling upstream", func(t *testing.T) {
		inner := &countingGeocoder{}
		g := NewRateLimitedGeocoder(inner, time.Hour, discardLogger())
		require.NotNil(t, g.Geocode(context.Background(), "Paris"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Nil(t, g.Geocode(ctx, "Lyon"))
		assert.Equal(t, int32(1), inner.calls.Load())
	})
}
