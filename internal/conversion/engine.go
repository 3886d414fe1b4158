package conversion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/pivotproxy/pivot/internal/transform"
)

// anthropicVersion is the messages API revision stamped on every request to
// a claude-format provider.
const anthropicVersion = "2023-06-01"

// Provider is a configured upstream endpoint. Values arrive fully resolved:
// the API key has already been read from its storage backend.
type Provider struct {
	ID      string
	Format  transform.Format
	BaseURL string
	APIKey  string

	// Referer and Title become the HTTP-Referer and X-Title attribution
	// headers understood by OpenRouter-style openai-format providers.
	Referer string
	Title   string
}

// Params describes one translation job. Source names the dialect the client
// spoke, Target names a configured provider id.
type Params struct {
	Source string
	Target string
	Body   []byte
	Stream bool
}

// Result is the outcome of a conversion. Body carries buffered exchanges and
// forwarded upstream errors; Events carries live streams instead. Events is
// lazy, finite and single-use, and every element it yields is a fully framed
// SSE unit in the client dialect.
type Result struct {
	Status int
	Body   []byte
	Events iter.Seq2[[]byte, error]
}

// Engine translates requests between dialects and relays them upstream. It
// holds no per-request state; the registry and provider table are read-only
// after construction, so a single Engine serves concurrent requests.
type Engine struct {
	registry  *transform.Registry
	providers map[string]Provider
}

// NewEngine creates an engine over a transformer registry and a provider
// table keyed by provider id.
func NewEngine(registry *transform.Registry, providers map[string]Provider) (*Engine, error) {
	if registry == nil {
		return nil, errors.New("transformer registry is required")
	}
	return &Engine{registry: registry, providers: maps.Clone(providers)}, nil
}

// Convert performs one buffered exchange: translate the request, dispatch
// it, translate the response. A non-2xx upstream answer skips response
// translation entirely; the client receives the provider's status and body
// verbatim.
func (e *Engine) Convert(ctx context.Context, p Params, transport http.RoundTripper) (*Result, error) {
	src, prov, tgt, err := e.resolve(p)
	if err != nil {
		return nil, err
	}

	body, passThrough, err := e.outboundBody(p, src, tgt, prov)
	if err != nil {
		return nil, err
	}

	resp, err := e.dispatch(ctx, prov, body, transport)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	upstream, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if !is2xx(resp.StatusCode) || passThrough {
		return &Result{Status: resp.StatusCode, Body: upstream}, nil
	}

	uresp, err := tgt.ResponseOut(upstream)
	if err != nil {
		return nil, err
	}
	out, err := src.ResponseIn(uresp)
	if err != nil {
		return nil, err
	}
	return &Result{Status: resp.StatusCode, Body: out}, nil
}

// ConvertStream performs one streaming exchange. A non-2xx upstream answer
// is buffered and returned verbatim before any streaming begins; otherwise
// Result.Events yields client-dialect frames until the stream ends.
func (e *Engine) ConvertStream(ctx context.Context, p Params, transport http.RoundTripper) (*Result, error) {
	src, prov, tgt, err := e.resolve(p)
	if err != nil {
		return nil, err
	}

	body, passThrough, err := e.outboundBody(p, src, tgt, prov)
	if err != nil {
		return nil, err
	}

	resp, err := e.dispatch(ctx, prov, body, transport)
	if err != nil {
		return nil, err
	}

	if !is2xx(resp.StatusCode) {
		defer resp.Body.Close()
		upstream, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read upstream response: %w", err)
		}
		return &Result{Status: resp.StatusCode, Body: upstream}, nil
	}

	if passThrough {
		return &Result{Status: resp.StatusCode, Events: relay(ctx, resp.Body)}, nil
	}
	return &Result{Status: resp.StatusCode, Events: pump(ctx, resp, src, tgt)}, nil
}

// resolve looks up the source transformer and the target provider together
// with its transformer. Unknown names fail wrapping ErrUnsupportedProvider.
func (e *Engine) resolve(p Params) (transform.Transformer, Provider, transform.Transformer, error) {
	src, err := e.registry.Lookup(transform.Format(p.Source))
	if err != nil {
		return nil, Provider{}, nil, fmt.Errorf("source %q: %w", p.Source, err)
	}

	prov, ok := e.providers[p.Target]
	if !ok {
		return nil, Provider{}, nil, fmt.Errorf("%w: unknown provider %q", transform.ErrUnsupportedProvider, p.Target)
	}

	tgt, err := e.registry.Lookup(prov.Format)
	if err != nil {
		return nil, Provider{}, nil, fmt.Errorf("provider %q: %w", p.Target, err)
	}
	return src, prov, tgt, nil
}

// outboundBody produces the wire bytes sent upstream. Matching dialects pass
// the client body through untouched; anything else goes through the unified
// model.
func (e *Engine) outboundBody(p Params, src, tgt transform.Transformer, prov Provider) ([]byte, bool, error) {
	if src.Format() == prov.Format {
		return p.Body, true, nil
	}

	req, err := src.RequestOut(p.Body)
	if err != nil {
		return nil, false, err
	}
	body, err := tgt.RequestIn(req)
	if err != nil {
		return nil, false, err
	}
	return body, false, nil
}

// dispatch sends the single outbound request. No retries: a failed exchange
// surfaces to the caller as-is.
func (e *Engine) dispatch(ctx context.Context, prov Provider, body []byte, transport http.RoundTripper) (*http.Response, error) {
	url := strings.TrimSuffix(prov.BaseURL, "/")
	switch prov.Format {
	case transform.FormatClaude:
		url += "/messages"
	case transform.FormatOpenAI:
		url += "/chat/completions"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	switch prov.Format {
	case transform.FormatClaude:
		req.Header.Set("anthropic-version", anthropicVersion)
	case transform.FormatOpenAI:
		if prov.Referer != "" {
			req.Header.Set("HTTP-Referer", prov.Referer)
		}
		if prov.Title != "" {
			req.Header.Set("X-Title", prov.Title)
		}
	}

	if transport == nil {
		transport = http.DefaultTransport
	}
	if prov.APIKey != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: prov.APIKey, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	// No client timeout: streaming responses stay open indefinitely and
	// cancellation arrives through the request context.
	client := &http.Client{Transport: transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider %q: %w", prov.ID, err)
	}
	return resp, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
