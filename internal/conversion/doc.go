// Package conversion orchestrates single request translations between a
// client dialect and a configured upstream provider.
//
// The engine owns the full round trip:
//
//   - Resolution: the source format and target provider are looked up before
//     any byte is touched, so unknown names fail fast without an upstream
//     call.
//
//   - Translation: cross-format requests are lifted into the unified model
//     by the source transformer and lowered by the target's. When both sides
//     speak the same dialect the body passes through byte-identical.
//
//   - Dispatch: exactly one outbound POST per request, no retries. Upstream
//     non-2xx responses are forwarded verbatim so provider error payloads
//     survive the trip untouched.
//
//   - Streaming: upstream SSE is decoded event by event, re-framed into the
//     canonical message lifecycle, and re-encoded in the client dialect as a
//     lazy sequence of framed SSE units.
package conversion
