package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/FACorreiaa/go-tourism-agent/config"
	"github.com/FACorreiaa/go-tourism-agent/internal/container"
	"github.com/FACorreiaa/go-tourism-agent/internal/router"
	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

// E2ETestSuite drives the real router and container against fake
// geocoding, weather and places upstreams.
type E2ETestSuite struct {
	suite.Suite
	upstream  *httptest.Server
	server    *httptest.Server
	container *container.Container
	client    *http.Client
}

func (suite *E2ETestSuite) SetupSuite() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.upstream = httptest.NewServer(fakeUpstream())

	var cfg config.Config
	cfg.Server.Timeout = 10 * time.Second
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Geocode.BaseURL = suite.upstream.URL + "/search"
	cfg.Geocode.Timeout = 2 * time.Second
	cfg.Geocode.MinInterval = time.Millisecond
	cfg.Weather.BaseURL = suite.upstream.URL + "/forecast"
	cfg.Weather.Timeout = 2 * time.Second
	cfg.Places.BaseURL = suite.upstream.URL + "/interpreter"
	cfg.Places.Timeout = 2 * time.Second
	cfg.Places.RadiusMeters = 10000
	cfg.Places.Limit = 5
	cfg.Cache.Backend = config.BackendMemory
	cfg.Favorites.Backend = config.BackendFile
	cfg.Favorites.FilePath = filepath.Join(suite.T().TempDir(), "favorites.json")

	c, err := container.NewContainer(suite.T().Context(), &cfg, logger)
	suite.Require().NoError(err)
	suite.container = c

	suite.server = httptest.NewServer(router.SetupRouter(&router.Config{
		TourismHandler:   c.TourismHandler,
		LLMHandler:       c.LLMHandler,
		FavoritesHandler: c.FavoritesHandler,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Timeout:          cfg.Server.Timeout,
		Logger:           logger,
	}))
	suite.client = &http.Client{Timeout: 10 * time.Second}
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.container != nil {
		suite.container.Close()
	}
	if suite.upstream != nil {
		suite.upstream.Close()
	}
}

func fakeUpstream() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !strings.EqualFold(r.URL.Query().Get("q"), "paris") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, Ile-de-France, France"}]`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"time":"2024-05-01T12:00","temperature_2m":18.4,"precipitation_probability":20}}`))
	})
	mux.HandleFunc("/interpreter", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","lat":48.8584,"lon":2.2945,"tags":{"name":"Eiffel Tower"}},
			{"type":"way","center":{"lat":48.8606,"lon":2.3376},"tags":{"name":"Musée du Louvre"}},
			{"type":"node","lat":48.853,"lon":2.3499,"tags":{"name":"Notre-Dame"}}
		]}`))
	})
	return mux
}

func (suite *E2ETestSuite) do(method, path string, body any) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(suite.T().Context(), method, suite.server.URL+path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.client.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (suite *E2ETestSuite) TestHealth() {
	for _, path := range []string{"/health", "/api/v1/health"} {
		resp, body := suite.do(http.MethodGet, path, nil)
		suite.Equal(http.StatusOK, resp.StatusCode, path)
		suite.Equal("healthy", body["status"], path)
	}
}

func (suite *E2ETestSuite) TestQueryWeather() {
	resp, body := suite.do(http.MethodPost, "/api/v1/query", types.QueryRequest{Query: "What's the weather in Paris?"})
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(body["response"], "18C")
	suite.Contains(body["response"], "20%")
	suite.Equal("Paris, Ile-de-France, France", body["place_name"])
}

func (suite *E2ETestSuite) TestQueryMapPlaces() {
	resp, body := suite.do(http.MethodPost, "/query/map", types.QueryRequest{Query: "What are the places I can visit in Paris?"})
	suite.Equal(http.StatusOK, resp.StatusCode)

	suite.Contains(body["response"], "Eiffel Tower")
	suite.Contains(body["response"], "Musee du Louvre")
	coords, ok := body["coordinates"].(map[string]any)
	suite.Require().True(ok)
	suite.InDelta(48.8566, coords["lat"], 0.0001)

	placesData, ok := body["places_data"].([]any)
	suite.Require().True(ok)
	suite.Len(placesData, 3)
}

func (suite *E2ETestSuite) TestQueryUnknownPlace() {
	resp, body := suite.do(http.MethodPost, "/api/v1/query/map", types.QueryRequest{Query: "What's the weather in Atlantis?"})
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Nil(body["coordinates"])
	suite.Equal([]any{}, body["places_data"])
}

func (suite *E2ETestSuite) TestQueryEmpty() {
	resp, body := suite.do(http.MethodPost, "/api/v1/query", types.QueryRequest{Query: "   "})
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal(false, body["success"])
	suite.Equal("Query cannot be empty", body["error"])
}

func (suite *E2ETestSuite) TestEnhancedQueryWithoutModel() {
	_, plain := suite.do(http.MethodPost, "/api/v1/query", types.QueryRequest{Query: "What's the weather in Paris?"})
	resp, enhanced := suite.do(http.MethodPost, "/api/v1/query/enhanced", types.QueryRequest{Query: "What's the weather in Paris?"})
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(plain["response"], enhanced["response"])
	suite.Equal(plain["place_name"], enhanced["place_name"])
}

func (suite *E2ETestSuite) TestStatus() {
	resp, body := suite.do(http.MethodGet, "/status", nil)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(false, body["llm_available"])
	suite.Contains(body, "performance")
	suite.Contains(body, "cache")

	resp, body = suite.do(http.MethodGet, "/api/v1/llm/cache/stats", nil)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("memory", body["backend"])
}

func (suite *E2ETestSuite) TestFavoritesFlow() {
	resp, body := suite.do(http.MethodPost, "/api/v1/favorites/add-from-query", types.QueryRequest{Query: "What are the places I can visit in Paris?"})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(true, body["success"])
	fav, ok := body["favorite"].(map[string]any)
	suite.Require().True(ok)
	id := int64(fav["id"].(float64))
	suite.Equal("Paris, Ile-de-France, France", fav["place_name"])

	resp, body = suite.do(http.MethodPost, "/api/v1/favorites", types.AddFavoriteRequest{
		PlaceName:   "paris, ile-de-france, france",
		Coordinates: &types.Coordinates{Lat: 48.8566, Lon: 2.3522},
	})
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal(false, body["success"])
	suite.Equal("Place already in favorites", body["message"])
	existing, ok := body["favorite"].(map[string]any)
	suite.Require().True(ok)
	suite.EqualValues(id, existing["id"])

	resp, body = suite.do(http.MethodGet, "/api/v1/favorites", nil)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.EqualValues(1, body["count"])

	resp, body = suite.do(http.MethodGet, fmt.Sprintf("/api/v1/favorites/%d", id), nil)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("Paris, Ile-de-France, France", body["place_name"])

	resp, body = suite.do(http.MethodDelete, "/api/v1/favorites?name="+url.QueryEscape("Paris, Ile-de-France, France"), nil)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(true, body["success"])

	resp, _ = suite.do(http.MethodDelete, fmt.Sprintf("/api/v1/favorites/%d", id), nil)
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end tests in short mode")
	}
	suite.Run(t, new(E2ETestSuite))
}
