// Package transport defines the interface for pluggable interactive surfaces.
//
// Each transport (HTML form + JSON over HTTP, gRPC, NATS) implements
// Transport and drives a shared Service. The service doesn't care how a
// question arrives; it only works with the Query contract.
package transport

import (
	"context"

	"github.com/nadzzz/krishisahay/internal/message"
)

// Service is the question-answering pipeline as seen by a transport.
// *pipeline.Pipeline satisfies it.
type Service interface {
	// Ask runs one exchange. A non-nil result may accompany an error when
	// the answer was produced but a later stage failed.
	Ask(ctx context.Context, q message.Query) (*message.AskResult, error)

	// Transcribe converts an audio file into query text.
	Transcribe(ctx context.Context, path string) (string, error)

	// History returns all stored exchanges, most recent first.
	History(ctx context.Context) ([]message.Exchange, error)
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc", "nats").
	Name() string

	// Listen starts accepting requests and routes them to svc.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
