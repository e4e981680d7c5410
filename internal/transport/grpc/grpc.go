// Package grpc implements the gRPC transport for krishisahay.
//
// It exposes the krishisahay.v1.Assistant service (unary Ask and History)
// encoded as JSON, alongside the standard grpc.health.v1 service. It is
// meant for kiosks and field devices that prefer a typed RPC channel over
// the browser form.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/krishisahay/internal/transport"
)

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port int

	mu     sync.Mutex
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// NewServer builds the gRPC server with the Assistant and health services
// registered for svc. Listen calls it; tests can serve it on any listener.
func (t *Transport) NewServer(svc transport.Service) *grpc.Server {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	server.RegisterService(&assistantServiceDesc, &assistant{svc: svc})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	t.mu.Lock()
	t.server, t.health = server, hs
	t.mu.Unlock()

	return server
}

// Listen starts the gRPC server and routes incoming requests to svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	server := t.NewServer(svc)

	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		_ = t.Close()
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.mu.Lock()
	server, hs := t.server, t.health
	t.mu.Unlock()

	if server != nil {
		hs.Shutdown()
		server.GracefulStop()
	}
	return nil
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("grpc call", "method", info.FullMethod,
		"code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
