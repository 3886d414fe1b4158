// Package claudemsg implements the wire-format transformer for the
// Claude-style messages API.
//
// Inbound parsing (client requests, upstream responses) uses hand-written
// wire structs because the dialect is aggressively polymorphic: system is a
// string or an array of text blocks, message content is a string or an array
// of typed blocks, and tool_result content is again a string or an array.
// Each polymorphic field gets a custom UnmarshalJSON instead of dynamic
// shape inspection.
//
// Outbound request building rides on the anthropic-sdk-go param types, so
// the JSON this proxy emits toward a Claude-style provider is exactly the
// SDK's wire encoding: unset optionals are pruned, unions carry their
// discriminators, and wire-required fields (max_tokens) are always present.
//
// Structural quirks handled here rather than in the unified model:
//
//   - system role messages have no wire role; they are hoisted into the
//     top-level system field on the way out and lifted back into a leading
//     role=system message on the way in.
//   - tool role messages have no wire role either; they lower into user
//     messages holding a tool_result block, and such blocks lift back into
//     role=tool semantics on the OpenAI-compatible side.
package claudemsg
