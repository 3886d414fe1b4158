// Package openaichat translates between the unified message model and the
// OpenAI-compatible chat-completions dialect.
//
// The wire types are hand-written rather than generated: the dialect is
// small, and the polymorphic message content field (a plain string or an
// array of typed parts) needs custom JSON handling either way. Tool results
// become role "tool" messages on this wire, one message per result, placed
// before the turn's remaining content so they directly follow the assistant
// message that requested them.
package openaichat
