package claudemsg

import (
	"github.com/pivotproxy/pivot/internal/transform"
)

// Transformer converts the Claude-style messages dialect to and from the
// unified model. Stateless; one instance serves all requests.
type Transformer struct{}

// Compile-time check that Transformer implements transform.Transformer
var _ transform.Transformer = (*Transformer)(nil)

// New creates the Claude-style transformer.
func New() *Transformer {
	return &Transformer{}
}

// Format returns the wire dialect this transformer owns.
func (t *Transformer) Format() transform.Format {
	return transform.FormatClaude
}
