// Package proxy is the HTTP surface: it accepts requests in either dialect,
// hands the raw bodies to the conversion engine, and writes buffered or
// streamed results back in the shape the client expects.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pivotproxy/pivot/internal/conversion"
	"github.com/pivotproxy/pivot/internal/transform"
)

// defaultMaxRequestBytes caps inbound request bodies.
const defaultMaxRequestBytes = 10 << 20

// Routes maps each inbound surface to the provider id it relays to.
type Routes struct {
	Messages        string
	ChatCompletions string
}

// Config wires the server's collaborators.
type Config struct {
	Engine    *conversion.Engine
	Routes    Routes
	Readiness ReadinessChecker

	// Transport is the upstream RoundTripper; nil means
	// http.DefaultTransport. Tests inject mocks here.
	Transport http.RoundTripper

	// MaxRequestBytes caps inbound bodies; zero applies the default.
	MaxRequestBytes int64
}

// Server runs the HTTP listener and owns its lifecycle.
type Server struct {
	server *http.Server
}

// New assembles the route table and middleware chain.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("conversion engine is required")
	}
	if cfg.Readiness == nil {
		return nil, errors.New("readiness checker is required")
	}

	maxBytes := cfg.MaxRequestBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxRequestBytes
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/messages", &relayHandler{
		engine:    cfg.Engine,
		source:    transform.FormatClaude,
		target:    cfg.Routes.Messages,
		transport: cfg.Transport,
	})
	mux.Handle("POST /v1/chat/completions", &relayHandler{
		engine:    cfg.Engine,
		source:    transform.FormatOpenAI,
		target:    cfg.Routes.ChatCompletions,
		transport: cfg.Transport,
	})
	mux.Handle("GET /v1/models", modelsHandler())
	mux.Handle("GET /health", livenessHandler())
	mux.Handle("GET /ready", readinessHandler(cfg.Readiness))

	handler := applyMiddlewares(mux,
		Recovery,
		Logging(slog.Default()),
		RequestID,
		TraceContext,
		RequestSizeLimit(maxBytes),
	)

	return &Server{
		server: &http.Server{
			Handler: handler,
			// Write timeouts stay unset: streaming responses run as long
			// as the upstream keeps talking.
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start begins serving on addr. It returns once the listener is bound; the
// returned channel reports the serve loop's terminal error, if any.
func (s *Server) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.InfoContext(ctx, "listening", "addr", listener.Addr().String())
	return errCh, nil
}

// Shutdown drains in-flight requests. Live streams can hold the drain open
// past its window; when that happens the remaining connections are cut
// loose.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Join(err, s.server.Close())
	}
	return nil
}
