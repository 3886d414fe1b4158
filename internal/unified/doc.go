// Package unified defines the provider-neutral request/response model that
// every wire-format transformer reads and writes.
//
// All values are immutable once constructed: a Request or Response is built
// for a single proxied call and discarded when the response has been sent.
// Nothing in this package is shared across requests, so none of it needs
// locking.
//
// The package also owns the two pieces of logic shared by all transformers:
//
//   - Stop-reason mapping: every provider-native finish reason collapses into
//     the closed vocabulary {end_turn, max_tokens, tool_use}. The mapping is
//     total; unrecognized reasons map to end_turn rather than failing.
//
//   - Identifier generation: synthetic ids for responses that arrive without
//     one. Ids are cosmetic (never used as lookup keys), so the generator
//     only guarantees a well-formed token, not global uniqueness.
package unified
