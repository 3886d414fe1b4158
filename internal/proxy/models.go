package proxy

import (
	"net/http"
	"time"

	"github.com/pivotproxy/pivot/internal/transform"
)

// modelEntry is one row of the /v1/models response.
type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// modelList is the OpenAI-style list envelope.
type modelList struct {
	Object string       `json:"object"`
	Data   []modelEntry `json:"data"`
}

// modelsHandler lists the model families the proxy knows how to remap.
// Each mapping appears twice, once under its Claude-style id and once under
// the vendor-qualified slug, so clients of either dialect can pick a name
// the proxy will recognize. The list uses the OpenAI shape; Anthropic
// clients ignore the extra fields.
func modelsHandler() http.HandlerFunc {
	created := time.Now().Unix()

	list := modelList{Object: "list"}
	for _, pair := range transform.Models() {
		list.Data = append(list.Data,
			modelEntry{ID: pair.ID, Object: "model", Created: created, OwnedBy: "anthropic"},
			modelEntry{ID: pair.Slug, Object: "model", Created: created, OwnedBy: "anthropic"},
		)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, list, http.StatusOK)
	}
}
