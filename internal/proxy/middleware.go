package proxy

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/httplog/v3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Recovery recovers from panics in HTTP handlers and returns HTTP 500 to
// the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "handler panicked",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimit enforces maximum request body size.
// Handlers that read the body will receive *http.MaxBytesError when the limit is exceeded.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID tags every request with an id: the client's X-Request-ID when
// present, a fresh uuid otherwise. The id goes into the response header and
// the request log. Must run inside Logging so the log attribute lands on
// the request entry.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}

		// Set early to ensure it's present during recovery scenarios
		w.Header().Set("X-Request-ID", id)
		httplog.SetAttrs(r.Context(), slog.String("request_id", id))

		next.ServeHTTP(w, r)
	})
}

// TraceContext extracts W3C trace context from Traceparent/Tracestate
// headers and adds trace_id/span_id to the request log, so the proxy
// participates in distributed traces without opening spans of its own.
func TraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			httplog.SetAttrs(ctx,
				slog.String("trace_id", spanCtx.TraceID().String()),
				slog.String("span_id", spanCtx.SpanID().String()),
			)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging logs HTTP requests with method, path, status, and duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		// Bodies stay out of the logs; request payloads carry user
		// conversations.
		LogRequestHeaders:  []string{"Content-Type", "Origin"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		RecoverPanics: false, // dedicated Recovery middleware owns panics
	})
}

// applyMiddlewares applies middlewares to a handler in the order they appear.
// The first middleware in the slice is the outermost (executes first).
func applyMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
