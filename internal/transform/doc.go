// Package transform defines the wire-format transformer contract and the
// registry the conversion engine resolves formats against.
//
// A Transformer owns one provider wire dialect and converts it to and from
// the unified model in four pure operations (RequestOut, RequestIn,
// ResponseOut, ResponseIn), plus the stream codec pair used by the
// re-framing pipeline (DecodeStreamEvent, EncodeStreamEvent). Implementations
// live in the claudemsg and openaichat subpackages.
//
// The package also carries the conversion error taxonomy shared by the
// transformers, the engine and the HTTP layer.
package transform
