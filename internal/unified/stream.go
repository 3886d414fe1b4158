package unified

// StreamFragment is the provider-neutral lift of one native stream event.
// A format's stream codec decodes each native event into one fragment; the
// re-framer consumes fragments in arrival order. Fields are facets, not
// alternatives: a single native event may carry several (an OpenAI chunk can
// hold a text delta and a finish reason at once), and the zero value is a
// no-op fragment (keepalive pings decode to it).
type StreamFragment struct {
	// MessageID and Model are carried when the native event names them;
	// the re-framer adopts the first non-empty values it sees.
	MessageID string
	Model     string

	// Text is a text delta to append to the current text block.
	Text string

	// ToolCallID/ToolName mark the beginning of a new tool invocation;
	// ArgsDelta is an incremental fragment of its JSON arguments. ArgsDelta
	// may arrive alone (continuation) or alongside the opening fragment.
	ToolCallID string
	ToolName   string
	ArgsDelta  string

	// StopReason is set when the native stream named a finish reason,
	// already mapped into the unified vocabulary by the codec.
	StopReason StopReason

	// Usage is set when the native event carried token counts.
	Usage *Usage

	// Terminal marks the native end-of-stream sentinel ([DONE], message_stop).
	Terminal bool
}

// IsNoop reports whether the fragment carries nothing the re-framer acts on.
func (f StreamFragment) IsNoop() bool {
	return f.MessageID == "" && f.Model == "" && f.Text == "" &&
		f.ToolCallID == "" && f.ToolName == "" && f.ArgsDelta == "" &&
		f.StopReason == "" && f.Usage == nil && !f.Terminal
}

// StreamEventType names the unified stream lifecycle events. The vocabulary
// and ordering rules follow the strictest of the two provider grammars:
// exactly one message_start, then per content block one content_block_start,
// N content_block_delta, one content_block_stop, then exactly one
// message_delta and one message_stop.
type StreamEventType string

const (
	EventMessageStart      StreamEventType = "message_start"
	EventContentBlockStart StreamEventType = "content_block_start"
	EventContentBlockDelta StreamEventType = "content_block_delta"
	EventContentBlockStop  StreamEventType = "content_block_stop"
	EventMessageDelta      StreamEventType = "message_delta"
	EventMessageStop       StreamEventType = "message_stop"
)

// BlockKind identifies what a streamed content block holds.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockToolUse
)

// StreamEvent is one unified lifecycle event emitted by the re-framer. The
// target format's stream codec encodes each into native framing. MessageID
// and Model are stamped on every event; chunk-oriented dialects repeat them
// on every frame. Remaining field use by type:
//
//	message_start        Usage (input side, when known)
//	content_block_start  Index, Block, ToolCallID/ToolName for tool blocks
//	content_block_delta  Index, Block, TextDelta or ArgsDelta
//	content_block_stop   Index
//	message_delta        StopReason, Usage (best effort)
//	message_stop         nothing
type StreamEvent struct {
	Type StreamEventType

	MessageID string
	Model     string

	Index int
	Block BlockKind

	ToolCallID string
	ToolName   string

	TextDelta string
	ArgsDelta string

	StopReason StopReason
	Usage      *Usage
}
