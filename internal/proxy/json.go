package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pivotproxy/pivot/internal/transform"
)

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// claudeErrorEnvelope is the error shape claude-dialect clients parse.
type claudeErrorEnvelope struct {
	Type string      `json:"type"`
	Err  errorDetail `json:"error"`
}

// openaiErrorEnvelope is the error shape openai-dialect clients parse.
type openaiErrorEnvelope struct {
	Err openaiErrorDetail `json:"error"`
}

type openaiErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// errorStatus classifies an engine failure: HTTP status plus the error type
// string both dialects understand.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, transform.ErrMalformedRequest):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, transform.ErrUnsupportedProvider):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, transform.ErrNoContentInResponse):
		return http.StatusBadGateway, "api_error"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}

// writeEngineError maps an engine failure onto the client's native error
// envelope. Classified failures carry their message; anything else stays a
// generic 500 so internals never leak.
func writeEngineError(ctx context.Context, w http.ResponseWriter, dialect transform.Format, err error) {
	status, kind := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(http.StatusInternalServerError)
	}
	writeError(ctx, w, dialect, status, kind, message)
}

// writeError writes an error envelope in the client's dialect.
func writeError(ctx context.Context, w http.ResponseWriter, dialect transform.Format, status int, kind, message string) {
	if dialect == transform.FormatClaude {
		writeJSON(ctx, w, claudeErrorEnvelope{Type: "error", Err: errorDetail{Type: kind, Message: message}}, status)
		return
	}
	writeJSON(ctx, w, openaiErrorEnvelope{Err: openaiErrorDetail{Message: message, Type: kind}}, status)
}

// errorFrame builds a terminal mid-stream error frame in the client's
// dialect. OpenAI SDKs recognize an {"error": ...} data line and stop
// reading; claude clients get a proper error event.
func errorFrame(dialect transform.Format, err error) []byte {
	if dialect == transform.FormatClaude {
		data, _ := json.Marshal(claudeErrorEnvelope{Type: "error", Err: errorDetail{Type: "api_error", Message: err.Error()}})
		return fmt.Appendf(nil, "event: error\ndata: %s\n\n", data)
	}
	data, _ := json.Marshal(openaiErrorEnvelope{Err: openaiErrorDetail{Message: err.Error(), Type: "api_error"}})
	return fmt.Appendf(nil, "data: %s\n\n", data)
}
