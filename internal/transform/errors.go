package transform

import "errors"

// Conversion error taxonomy. Callers classify with errors.Is; every error
// a transformer or the engine returns wraps exactly one of these.
//
// Upstream non-2xx responses are deliberately absent: they are not errors
// at this layer, they are results forwarded verbatim (status and body
// untouched), because error body shapes are provider-specific and are
// never unified.
var (
	// ErrMalformedRequest marks an unparseable inbound body or one missing
	// required fields. Surfaced to the client as a 4xx, never retried.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrUnsupportedProvider marks an unknown provider id or wire format.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrNoContentInResponse marks an upstream 2xx whose body carried no
	// usable content. Surfaced as a server-side error: it means the
	// upstream shape changed underneath us.
	ErrNoContentInResponse = errors.New("no content in response")

	// ErrStreamTransport marks a connection failure mid-stream. Terminal:
	// the consumer sees it instead of a synthetic success marker.
	ErrStreamTransport = errors.New("stream transport failure")
)
