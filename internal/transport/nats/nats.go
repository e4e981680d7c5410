// Package nats implements the NATS request/reply transport for krishisahay.
//
// Clients publish an AskRequest as JSON to the configured subject with a
// reply inbox; the reply is an AskResult whose error field carries any
// failure. Several instances can share the load through a queue group.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nadzzz/krishisahay/internal/message"
	"github.com/nadzzz/krishisahay/internal/transport"
)

// Transport implements transport.Transport over NATS.
type Transport struct {
	url     string
	subject string
	queue   string

	mu   sync.Mutex
	conn *nats.Conn
	sub  *nats.Subscription
}

// New creates a new NATS transport.
func New(url, subject, queue string) *Transport {
	if url == "" {
		url = nats.DefaultURL
	}
	return &Transport{url: url, subject: subject, queue: queue}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "nats" }

// Listen connects to the server and answers requests on the subject until
// ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	opts := []nats.Option{
		nats.Name("krishisahay"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			slog.Info("nats connection closed")
		}),
	}

	conn, err := nats.Connect(t.url, opts...)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	sub, err := conn.QueueSubscribe(t.subject, t.queue, func(msg *nats.Msg) {
		if msg.Reply == "" {
			slog.Warn("nats request without reply subject dropped", "subject", msg.Subject)
			return
		}
		if err := msg.Respond(Handle(ctx, svc, msg.Data)); err != nil {
			slog.Error("nats respond failed", "error", err)
		}
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("nats subscribe %s: %w", t.subject, err)
	}
	t.mu.Lock()
	t.sub = sub
	t.mu.Unlock()

	slog.Info("nats transport listening", "url", conn.ConnectedUrl(),
		"subject", t.subject, "queue", t.queue)

	<-ctx.Done()
	slog.Info("nats transport shutting down")
	return t.Close()
}

// Handle decodes one request, runs it through svc and returns the encoded
// reply. It never fails: problems are reported in the reply's error field.
func Handle(ctx context.Context, svc transport.Service, data []byte) []byte {
	var req message.AskRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encode(&message.AskResult{Error: "invalid request: " + err.Error()})
	}

	q := req.Query()
	res, err := svc.Ask(ctx, q)
	if err != nil {
		slog.Error("nats ask failed", "error", err)
		if res == nil {
			res = &message.AskResult{
				Question:     q.Text,
				Language:     q.Language.Label,
				LanguageCode: q.Language.Code,
			}
		}
		res.Error = err.Error()
	}
	return encode(res)
}

func encode(res *message.AskResult) []byte {
	data, err := json.Marshal(res)
	if err != nil {
		// AskResult holds only strings.
		return []byte(`{"error":"encoding reply failed"}`)
	}
	return data
}

// Close drains the subscription and closes the connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	conn, sub := t.conn, t.sub
	t.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}
	var errs []error
	if sub != nil {
		errs = append(errs, sub.Drain())
	}
	errs = append(errs, conn.Drain())
	return errors.Join(errs...)
}
