// Package reframe rebuilds the block-structured stream lifecycle from flat
// stream fragments.
//
// OpenAI-compatible streams are flat: deltas arrive with no block structure
// and no lifecycle markers beyond the [DONE] sentinel. Claude-style clients
// expect the full event grammar: one message_start, explicit content block
// boundaries, a closing message_delta with the stop reason, one
// message_stop. The Machine synthesizes the missing structure as fragments
// arrive, holding nothing back: a text delta in is a delta event out.
//
// The machine is pure state, no I/O. Transport failures must be handled by
// the caller without touching the machine, so a dead upstream can never be
// dressed up as a completed message.
package reframe
