package transform

import (
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/pivotproxy/pivot/internal/unified"
)

// Format identifies a provider wire dialect.
type Format string

const (
	// FormatClaude is the Claude-style messages API: messages array with
	// content blocks, top-level system field, event-typed SSE streaming.
	FormatClaude Format = "claude"

	// FormatOpenAI is the OpenAI-compatible chat-completions API: choices
	// array, delta-chunk SSE streaming terminated by [DONE].
	FormatOpenAI Format = "openai"
)

// Valid reports whether f names a known format.
func (f Format) Valid() bool {
	return f == FormatClaude || f == FormatOpenAI
}

// Transformer converts one provider wire dialect to and from the unified
// model. All operations are pure: no I/O, no retained state, safe for
// concurrent use.
type Transformer interface {
	// Format returns the wire dialect this transformer owns.
	Format() Format

	// RequestOut lifts a native wire request into the unified model. Fields
	// the unified model cannot express are dropped. Well-formed input never
	// fails; a body that is not an object or lacks messages fails wrapping
	// ErrMalformedRequest.
	RequestOut(body []byte) (*unified.Request, error)

	// RequestIn lowers a unified request into native wire bytes, applying
	// this provider's defaults (model remapping, max_tokens, temperature)
	// and structural lowering of block content. Absent optionals are pruned
	// from the payload, never serialized as null.
	RequestIn(req *unified.Request) ([]byte, error)

	// ResponseOut lifts a native response body into the unified model.
	// Fails wrapping ErrNoContentInResponse when the body carries no
	// choices/content at all.
	ResponseOut(body []byte) (*unified.Response, error)

	// ResponseIn lowers a unified response into the native response shape
	// expected by a client speaking this dialect.
	ResponseIn(resp *unified.Response) ([]byte, error)

	// DecodeStreamEvent lifts one native SSE event into a unified stream
	// fragment. A decode failure is reported per event; callers log and
	// skip, they never abort the stream over one bad line. The one
	// exception is a failure wrapping ErrStreamTransport, which marks an
	// explicit upstream error event and ends the stream.
	DecodeStreamEvent(ev ssestream.Event) (unified.StreamFragment, error)

	// EncodeStreamEvent lowers one unified lifecycle event into a fully
	// framed native SSE unit, including the trailing blank line. An event
	// with no expression in this dialect yields a nil frame and no error;
	// callers write nothing for it.
	EncodeStreamEvent(ev unified.StreamEvent) ([]byte, error)
}
