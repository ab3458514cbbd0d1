package natsquery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
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

func setupTransportTest() (*Transport, *MockAnswerer, *MockAnswerer) {
	det, enh := new(MockAnswerer), new(MockAnswerer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newTransport(nil, Config{Subject: DefaultSubject}, det, enh, logger), det, enh
}

func decodeReply(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	return got
}

func TestTransport_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("deterministic by default", func(t *testing.T) {
		tr, det, enh := setupTransportTest()
		place := "Paris, France"
		det.On("Answer", mock.Anything, "Weather in Paris").
			Return(types.TourismAnswer{Response: "In Paris, France it's currently 15C with a chance of 20% to rain.", PlaceName: &place, Places: []types.PlaceOfInterest{}}, nil).Once()

		got := decodeReply(t, tr.process(ctx, []byte(`{"query":" Weather in Paris ","request_id":"abc"}`)))

		assert.Equal(t, "abc", got["request_id"])
		assert.Equal(t, "Paris, France", got["place_name"])
		assert.Contains(t, got["response"], "15C")
		assert.NotContains(t, got, "error")
		enh.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
	})

	t.Run("enhanced flag picks the enhanced pipeline", func(t *testing.T) {
		tr, det, enh := setupTransportTest()
		enh.On("Answer", mock.Anything, "Romantic weekend in Rome").
			Return(types.NewTourismAnswer("Rome is made for two."), nil).Once()

		got := decodeReply(t, tr.process(ctx, []byte(`{"query":"Romantic weekend in Rome","enhanced":true}`)))

		assert.Equal(t, "Rome is made for two.", got["response"])
		_, err := uuid.Parse(got["request_id"].(string))
		assert.NoError(t, err)
		det.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
	})

	t.Run("invalid body", func(t *testing.T) {
		tr, _, _ := setupTransportTest()
		got := decodeReply(t, tr.process(ctx, []byte(`not json`)))
		assert.Equal(t, "Invalid request format", got["error"])
		assert.NotContains(t, got, "response")
	})

	t.Run("empty query", func(t *testing.T) {
		tr, det, _ := setupTransportTest()
		got := decodeReply(t, tr.process(ctx, []byte(`{"query":"   "}`)))
		assert.Equal(t, "Query cannot be empty", got["error"])
		det.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
	})

	t.Run("pipeline error is not leaked", func(t *testing.T) {
		tr, det, _ := setupTransportTest()
		det.On("Answer", mock.Anything, "Oslo").Return(types.TourismAnswer{}, errors.New("dial tcp: refused")).Once()

		got := decodeReply(t, tr.process(ctx, []byte(`{"query":"Oslo"}`)))
		assert.NotContains(t, got["error"], "refused")
		assert.Contains(t, got["error"], "Sorry")
	})
}

func TestNewTransportWithoutEnhanced(t *testing.T) {
	det := new(MockAnswerer)
	tr := newTransport(nil, Config{}, det, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Same(t, det, tr.enhanced)
	assert.NoError(t, tr.Close())
}
