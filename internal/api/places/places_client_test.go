package places

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *OverpassClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOverpassClient(Config{BaseURL: srv.URL, Timeout: timeout}, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ptr(f float64) *float64 { return &f }

func node(name string, lat, lon float64) overpassElement {
	return overpassElement{Type: "node", Lat: ptr(lat), Lon: ptr(lon), Tags: map[string]string{"name": name}}
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(12.97, 77.59, 10000, 15*time.Second)

	assert.True(t, strings.HasPrefix(q, "[out:json][timeout:15];"))
	assert.Contains(t, q, `node["tourism"](around:10000,12.970000,77.590000);`)
	assert.Contains(t, q, `relation["tourism"](around:10000,12.970000,77.590000);`)
	assert.Contains(t, q, `way["leisure"~"^(park|theme_park)$"](around:10000,12.970000,77.590000);`)
	assert.Contains(t, q, `way["historic"](around:10000,12.970000,77.590000);`)
	assert.Contains(t, q, "out center;")
}

func TestCollect(t *testing.T) {
	t.Run("dedup fold and skip", func(t *testing.T) {
		elements := []overpassElement{
			node("Musée du Louvre", 48.86, 2.33),
			node("Musee du Louvre", 48.87, 2.34),
			node("東京", 1, 1),
			node("Ab", 1, 1),
			{Type: "node", Lat: ptr(1), Lon: ptr(1)},
			{Type: "way", Tags: map[string]string{"name": "No Center Park"}},
			{Type: "way", Center: &overpassCenter{Lat: 48.85, Lon: 2.35}, Tags: map[string]string{"name": "Jardin   des Plantes"}},
		}

		got := collect(elements, 5)
		require.Len(t, got, 2)
		assert.Equal(t, "Musee du Louvre", got[0].Name)
		assert.InDelta(t, 48.86, got[0].Lat, 1e-9)
		assert.Equal(t, "Jardin des Plantes", got[1].Name)
		assert.InDelta(t, 48.85, got[1].Lat, 1e-9)
	})

	t.Run("cap and no repeats for any source size", func(t *testing.T) {
		for _, n := range []int{5, 6, 12, 40} {
			for _, limit := range []int{1, 3, 5} {
				var elements []overpassElement
				for i := 0; i < n; i++ {
					// every name appears twice
					elements = append(elements, node(fmt.Sprintf("Place %d", i/2), float64(i), float64(i)))
				}
				got := collect(elements, limit)
				assert.LessOrEqual(t, len(got), limit)
				seen := map[string]bool{}
				for _, p := range got {
					assert.False(t, seen[p.Name], "duplicate %q", p.Name)
					seen[p.Name] = true
				}
			}
		}
	})
}

func TestOverpassClient_Nearby(t *testing.T) {
	ctx := context.Background()

	t.Run("posts query and parses elements", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, r.ParseForm())
			assert.Contains(t, r.PostForm.Get("data"), "[out:json]")
			_, _ = w.Write([]byte(`{"elements":[
				{"type":"node","id":1,"lat":12.97,"lon":77.59,"tags":{"name":"Cubbon Park"}},
				{"type":"way","id":2,"center":{"lat":12.95,"lon":77.58},"tags":{"name":"Lalbagh Botanical Garden"}},
				{"type":"node","id":3,"lat":12.99,"lon":77.59,"tags":{"name":"Bangalore Palace"}}
			]}`))
		}, time.Second)

		got := c.Nearby(ctx, 12.97, 77.59, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "Cubbon Park", got[0].Name)
		assert.Equal(t, "Lalbagh Botanical Garden", got[1].Name)
	})

	t.Run("non positive limit uses default", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var b strings.Builder
			b.WriteString(`{"elements":[`)
			for i := 0; i < 8; i++ {
				if i > 0 {
					b.WriteString(",")
				}
				fmt.Fprintf(&b, `{"type":"node","lat":1,"lon":1,"tags":{"name":"Spot %d"}}`, i)
			}
			b.WriteString(`]}`)
			_, _ = w.Write([]byte(b.String()))
		}, time.Second)

		assert.Len(t, c.Nearby(ctx, 1, 1, 0), DefaultLimit)
	})

	t.Run("failure yields empty list", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGatewayTimeout)
		}, time.Second)

		got := c.Nearby(ctx, 1, 1, 5)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("malformed payload yields empty list", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"elements": "nope"}`))
		}, time.Second)
		assert.Empty(t, c.Nearby(ctx, 1, 1, 5))
	})
}
