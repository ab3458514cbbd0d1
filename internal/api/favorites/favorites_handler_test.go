package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, query string) (types.TourismAnswer, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(types.TourismAnswer), args.Error(1)
}

func setupFavoritesHandlerTest(t *testing.T) (http.Handler, *MockAnswerer) {
	t.Helper()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "favorites.json"), discardLogger())
	answerer := new(MockAnswerer)
	h := NewHandler(NewServiceImpl(repo, nil, discardLogger()), answerer, discardLogger())

	r := chi.NewRouter()
	r.Get("/favorites", h.List)
	r.Post("/favorites", h.Add)
	r.Delete("/favorites", h.DeleteByName)
	r.Post("/favorites/add-from-query", h.AddFromQuery)
	r.Get("/favorites/{id}", h.Get)
	r.Delete("/favorites/{id}", h.Delete)
	return r, answerer
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Favorites(t *testing.T) {
	h, _ := setupFavoritesHandlerTest(t)

	rr := do(t, h, http.MethodGet, "/favorites", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"favorites":[],"count":0}`, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/favorites", `{"place_name":"Paris, France","coordinates":{"lat":48.85,"lon":2.35}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var added types.FavoriteResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.True(t, added.Success)
	assert.Equal(t, int64(1), added.Favorite.ID)

	rr = do(t, h, http.MethodPost, "/favorites", `{"place_name":"PARIS, FRANCE"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var duplicate types.FavoriteResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &duplicate))
	assert.False(t, duplicate.Success)
	assert.Equal(t, MessageDuplicate, duplicate.Message)
	require.NotNil(t, duplicate.Favorite)
	assert.Equal(t, int64(1), duplicate.Favorite.ID)
	assert.Equal(t, "Paris, France", duplicate.Favorite.PlaceName)

	rr = do(t, h, http.MethodGet, "/favorites/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"place_name":"Paris, France"`)

	rr = do(t, h, http.MethodGet, "/favorites/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/favorites/2", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodDelete, "/favorites/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"message":"Favorite removed successfully"}`, rr.Body.String())

	rr = do(t, h, http.MethodDelete, "/favorites/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Favorite not found"}`, rr.Body.String())
}

func TestHandler_DeleteByName(t *testing.T) {
	h, _ := setupFavoritesHandlerTest(t)
	do(t, h, http.MethodPost, "/favorites", `{"place_name":"Rome, Italy"}`)

	rr := do(t, h, http.MethodDelete, "/favorites", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodDelete, "/favorites?name=rome,%20italy", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodDelete, "/favorites?name=rome,%20italy", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Favorite not found"}`, rr.Body.String())
}

func TestHandler_AddFromQuery(t *testing.T) {
	t.Run("saves the resolved place", func(t *testing.T) {
		h, answerer := setupFavoritesHandlerTest(t)
		name := "Kyoto, Japan"
		answerer.On("Answer", mock.Anything, "Weather in Kyoto").Return(types.TourismAnswer{
			Response:    "In Kyoto, Japan it's currently 12C with a chance of 5% to rain.",
			PlaceName:   &name,
			Coordinates: &types.Coordinates{Lat: 35.01, Lon: 135.76},
			Places:      []types.PlaceOfInterest{},
		}, nil).Once()

		rr := do(t, h, http.MethodPost, "/favorites/add-from-query", `{"query":"Weather in Kyoto"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		var res types.FavoriteResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, "Kyoto, Japan", res.Favorite.PlaceName)
		assert.Equal(t, &types.Coordinates{Lat: 35.01, Lon: 135.76}, res.Favorite.Coordinates)
		answerer.AssertExpectations(t)
	})

	t.Run("no coordinates", func(t *testing.T) {
		h, answerer := setupFavoritesHandlerTest(t)
		answerer.On("Answer", mock.Anything, "asdkasdk").Return(types.NewTourismAnswer("I couldn't identify a place name in your query."), nil).Once()

		rr := do(t, h, http.MethodPost, "/favorites/add-from-query", `{"query":"asdkasdk"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Could not geocode the place")
	})

	t.Run("empty query", func(t *testing.T) {
		h, answerer := setupFavoritesHandlerTest(t)

		rr := do(t, h, http.MethodPost, "/favorites/add-from-query", `{"query":""}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		answerer.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
	})

	t.Run("pipeline failure", func(t *testing.T) {
		h, answerer := setupFavoritesHandlerTest(t)
		answerer.On("Answer", mock.Anything, "Paris").Return(types.TourismAnswer{}, errors.New("boom")).Once()

		rr := do(t, h, http.MethodPost, "/favorites/add-from-query", `{"query":"Paris"}`)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "boom")
	})
}
