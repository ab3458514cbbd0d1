// Package natsquery serves tourism queries over NATS request/reply.
package natsquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

const (
	DefaultSubject = "tourism.query"
	DefaultTimeout = 60 * time.Second
)

// Answerer is implemented by both the deterministic and the enhanced pipeline.
type Answerer interface {
	Answer(ctx context.Context, query string) (types.TourismAnswer, error)
}

type Config struct {
	URL     string
	Subject string
	Name    string
	Timeout time.Duration
}

// Request is the message body accepted on the query subject.
type Request struct {
	Query     string `json:"query"`
	Enhanced  bool   `json:"enhanced"`
	RequestID string `json:"request_id,omitempty"`
}

// Reply carries either the answer fields or an error.
type Reply struct {
	RequestID string `json:"request_id"`
	*types.TourismAnswer
	Error string `json:"error,omitempty"`
}

type Transport struct {
	conn          *nats.Conn
	sub           *nats.Subscription
	cfg           Config
	deterministic Answerer
	enhanced      Answerer
	logger        *slog.Logger
}

func NewTransport(cfg Config, deterministic, enhanced Answerer, logger *slog.Logger) (*Transport, error) {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", slog.String("url", cfg.URL))

	return newTransport(conn, cfg, deterministic, enhanced, logger), nil
}

func newTransport(conn *nats.Conn, cfg Config, deterministic, enhanced Answerer, logger *slog.Logger) *Transport {
	if enhanced == nil {
		enhanced = deterministic
	}
	return &Transport{
		conn:          conn,
		cfg:           cfg,
		deterministic: deterministic,
		enhanced:      enhanced,
		logger:        logger.With(slog.String("transport", "nats"), slog.String("subject", cfg.Subject)),
	}
}

func (t *Transport) Start() error {
	sub, err := t.conn.Subscribe(t.cfg.Subject, t.handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", t.cfg.Subject, err)
	}
	t.sub = sub
	t.logger.Info("Listening for queries")
	return nil
}

func (t *Transport) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Timeout)
	defer cancel()

	if err := msg.Respond(t.process(ctx, msg.Data)); err != nil {
		t.logger.Error("Failed to send reply", slog.Any("error", err))
	}
}

// process turns one request body into one reply body. It never fails; every
// problem is reported inside the reply.
func (t *Transport) process(ctx context.Context, data []byte) []byte {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return t.encode(Reply{RequestID: uuid.NewString(), Error: "Invalid request format"})
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, span := otel.Tracer("NatsQueryTransport").Start(ctx, "Query", trace.WithAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.Bool("query.enhanced", req.Enhanced),
	))
	defer span.End()
	l := t.logger.With(slog.String("request_id", req.RequestID))

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return t.encode(Reply{RequestID: req.RequestID, Error: "Query cannot be empty"})
	}

	answerer := t.deterministic
	if req.Enhanced {
		answerer = t.enhanced
	}
	answer, err := answerer.Answer(ctx, query)
	if err != nil {
		msg := "Sorry, something went wrong while processing your query. Please try again."
		if errors.Is(err, types.ErrEmptyQuery) {
			msg = "Query cannot be empty"
		}
		l.ErrorContext(ctx, "Failed to answer query", slog.Any("error", err))
		span.RecordError(err)
		return t.encode(Reply{RequestID: req.RequestID, Error: msg})
	}
	l.DebugContext(ctx, "Query answered")
	return t.encode(Reply{RequestID: req.RequestID, TourismAnswer: &answer})
}

func (t *Transport) encode(r Reply) []byte {
	b, err := json.Marshal(r)
	if err != nil {
		t.logger.Error("Failed to encode reply", slog.Any("error", err))
		return []byte(`{"error":"internal error"}`)
	}
	return b
}

// Close drains the subscription and closes the connection.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	if t.sub != nil {
		if err := t.sub.Drain(); err != nil {
			t.logger.Warn("Failed to drain subscription", slog.Any("error", err))
		}
	}
	t.conn.Close()
	t.logger.Info("NATS connection closed")
	return nil
}
