package proxy

import (
	"errors"
	"net/http"
)

// SSEWriter writes pre-framed server-sent events, flushing after each one
// so frames reach the client immediately.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter switches the response into streaming mode. Fails when the
// underlying writer cannot flush, which streaming requires.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteFrame writes one fully framed SSE unit, terminator included.
func (s *SSEWriter) WriteFrame(frame []byte) error {
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
