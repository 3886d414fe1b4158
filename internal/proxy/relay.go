package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
	"github.com/tidwall/gjson"

	"github.com/pivotproxy/pivot/internal/conversion"
	"github.com/pivotproxy/pivot/internal/transform"
)

// relayHandler serves one inbound surface. It peeks the stream flag on the
// raw body, hands the body opaque to the engine, and writes the outcome in
// the client's dialect.
type relayHandler struct {
	engine    *conversion.Engine
	source    transform.Format
	target    string
	transport http.RoundTripper
}

// Compile-time check to ensure relayHandler implements http.Handler
var _ http.Handler = (*relayHandler)(nil)

// ServeHTTP implements http.Handler for streaming and non-streaming requests.
func (h *relayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
			writeError(ctx, w, h.source, http.StatusRequestEntityTooLarge,
				"invalid_request_error", http.StatusText(http.StatusRequestEntityTooLarge))
			return
		}
		slog.ErrorContext(ctx, "failed to read request body", "error", err)
		writeError(ctx, w, h.source, http.StatusBadRequest,
			"invalid_request_error", http.StatusText(http.StatusBadRequest))
		return
	}

	params := conversion.Params{
		Source: string(h.source),
		Target: h.target,
		Body:   body,
		Stream: gjson.GetBytes(body, "stream").Bool(),
	}

	httplog.SetAttrs(ctx,
		slog.String("model", gjson.GetBytes(body, "model").String()),
		slog.String("provider", h.target),
		slog.Bool("stream", params.Stream),
	)

	if params.Stream {
		h.streamResponse(ctx, w, params)
	} else {
		h.writeResponse(ctx, w, params)
	}
}

// writeResponse handles buffered requests.
func (h *relayHandler) writeResponse(ctx context.Context, w http.ResponseWriter, p conversion.Params) {
	if ctx.Err() != nil {
		return
	}

	res, err := h.engine.Convert(ctx, p, h.transport)
	if err != nil {
		slog.ErrorContext(ctx, "request failed", "error", err)
		writeEngineError(ctx, w, h.source, err)
		return
	}

	writeRaw(ctx, w, res.Status, res.Body)
}

// streamResponse relays a live stream frame by frame over SSE.
func (h *relayHandler) streamResponse(ctx context.Context, w http.ResponseWriter, p conversion.Params) {
	if ctx.Err() != nil {
		return
	}

	res, err := h.engine.ConvertStream(ctx, p, h.transport)
	if err != nil {
		slog.ErrorContext(ctx, "streaming request failed", "error", err)
		writeEngineError(ctx, w, h.source, err)
		return
	}

	if res.Events == nil {
		// The upstream refused the request before any stream started;
		// relay its answer as-is.
		writeRaw(ctx, w, res.Status, res.Body)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		slog.ErrorContext(ctx, "SSE not supported", "error", err)
		writeError(ctx, w, h.source, http.StatusInternalServerError,
			"api_error", http.StatusText(http.StatusInternalServerError))
		return
	}

	for frame, err := range res.Events {
		// Check for client disconnect before writing each frame
		if ctx.Err() != nil {
			slog.DebugContext(ctx, "client disconnected during stream")
			return
		}

		if err != nil {
			slog.ErrorContext(ctx, "stream failed", "error", err)
			if writeErr := sse.WriteFrame(errorFrame(h.source, err)); writeErr != nil {
				slog.ErrorContext(ctx, "failed to write error frame", "error", writeErr)
			}
			return
		}

		if err := sse.WriteFrame(frame); err != nil {
			slog.ErrorContext(ctx, "failed to write frame", "error", err)
			return
		}
	}
}

// writeRaw forwards pre-encoded bytes with the given status.
func writeRaw(ctx context.Context, w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
