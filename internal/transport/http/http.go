// Package http implements the HTTP transport for krishisahay.
//
// It serves the browser form used by farmers (language selector, question
// box, audio upload, answer with playback and the shared history) and a
// small JSON API with Swagger UI for scripted clients.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/krishisahay/internal/session"
	"github.com/nadzzz/krishisahay/internal/transport"
)

// maxUpload bounds uploaded recordings and raw audio bodies.
const maxUpload = 25 << 20 // 25 MB

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port      int
	uploadDir string
	sessions  *session.Manager

	mu     sync.Mutex
	server *http.Server
}

// New creates a new HTTP transport on the given port. Uploaded recordings
// are written to uploadDir (os.TempDir() when empty). Form sessions idle
// for sessionTTL are forgotten.
func New(port int, uploadDir string, sessionTTL time.Duration) *Transport {
	return &Transport{
		port:      port,
		uploadDir: uploadDir,
		sessions:  session.NewManager(sessionTTL),
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the routing table for svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	mux := http.NewServeMux()

	// Browser form.
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		t.handleIndex(w, r, svc)
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		t.handleUpload(w, r, svc)
	})
	mux.HandleFunc("POST /ask", func(w http.ResponseWriter, r *http.Request) {
		t.handleAsk(w, r, svc)
	})
	mux.HandleFunc("GET /audio", t.handleAudio)

	// JSON API.
	mux.HandleFunc("POST /api/ask", func(w http.ResponseWriter, r *http.Request) {
		handleAPIAsk(w, r, svc)
	})
	mux.HandleFunc("POST /api/transcribe", func(w http.ResponseWriter, r *http.Request) {
		t.handleAPITranscribe(w, r, svc)
	})
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, r *http.Request) {
		handleAPIHistory(w, r, svc)
	})

	// Swagger UI — serves the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server and routes incoming requests to svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Lock()
	t.server = server
	t.mu.Unlock()

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		_ = t.Close()
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}

// saveUpload copies an uploaded recording into a new temp file and returns
// its path. The file is left in place like the synthesized answers.
func (t *Transport) saveUpload(data []byte, ext string) (string, error) {
	f, err := os.CreateTemp(t.uploadDir, "krishisahay-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing upload file: %w", err)
	}
	return f.Name(), nil
}
