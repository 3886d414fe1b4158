package transform

import "strings"

// modelEntry pairs a Claude-style model id prefix with the vendor-qualified
// slug OpenAI-compatible routers use for it.
type modelEntry struct {
	prefix string
	slug   string
}

// modelTable is checked in order, most specific prefix first, so dated ids
// like claude-3-5-sonnet-20241022 match their family before a shorter
// prefix can claim them.
var modelTable = []modelEntry{
	{"claude-3-5-sonnet", "anthropic/claude-3.5-sonnet"},
	{"claude-3-5-haiku", "anthropic/claude-3.5-haiku"},
	{"claude-3-7-sonnet", "anthropic/claude-3.7-sonnet"},
	{"claude-3-opus", "anthropic/claude-3-opus"},
	{"claude-3-sonnet", "anthropic/claude-3-sonnet"},
	{"claude-3-haiku", "anthropic/claude-3-haiku"},
	{"claude-opus-4-1", "anthropic/claude-opus-4.1"},
	{"claude-opus-4", "anthropic/claude-opus-4"},
	{"claude-sonnet-4", "anthropic/claude-sonnet-4"},
	{"claude-haiku-4", "anthropic/claude-haiku-4"},
}

// ModelPair is one known mapping between the Claude-style model id family
// and its vendor-qualified slug.
type ModelPair struct {
	ID   string
	Slug string
}

// Models lists the known model mappings in match order.
func Models() []ModelPair {
	pairs := make([]ModelPair, len(modelTable))
	for i, e := range modelTable {
		pairs[i] = ModelPair{ID: e.prefix, Slug: e.slug}
	}
	return pairs
}

// MapModelOut converts a Claude-style model id to the vendor-qualified slug.
// Claude models outside the table are qualified verbatim; anything else
// passes through unchanged.
func MapModelOut(model string) string {
	for _, e := range modelTable {
		if strings.HasPrefix(model, e.prefix) {
			return e.slug
		}
	}
	if strings.HasPrefix(model, "claude-") {
		return "anthropic/" + model
	}
	return model
}

// MapModelIn converts a vendor-qualified slug back to a Claude-style model
// id. Date suffixes are not recoverable, so the undated family id comes
// back. Unqualified names pass through unchanged.
func MapModelIn(model string) string {
	for _, e := range modelTable {
		if model == e.slug {
			return e.prefix
		}
	}
	return strings.TrimPrefix(model, "anthropic/")
}
