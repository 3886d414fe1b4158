package openaichat

import "github.com/pivotproxy/pivot/internal/transform"

// Transformer translates the OpenAI-compatible chat-completions dialect.
// Stateless; the zero value is usable.
type Transformer struct{}

var _ transform.Transformer = (*Transformer)(nil)

func New() *Transformer { return &Transformer{} }

func (t *Transformer) Format() transform.Format { return transform.FormatOpenAI }
