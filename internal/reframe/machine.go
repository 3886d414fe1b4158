package reframe

import (
	"github.com/pivotproxy/pivot/internal/unified"
)

type state int

const (
	stateNotStarted state = iota
	stateBlockOpen
	stateBlockClosed
	stateDone
)

// Machine synthesizes the block-structured stream lifecycle from flat
// fragments. Events come out as fragments come in; nothing is buffered.
// Not safe for concurrent use; one machine per stream.
type Machine struct {
	state state

	messageID string
	model     string

	curIndex  int
	nextIndex int
	curKind   unified.BlockKind

	toolOpened bool
	stopReason unified.StopReason
	usage      *unified.Usage
}

// New returns a machine carrying a synthetic message identity, used until
// the source stream names its own.
func New(messageID, model string) *Machine {
	return &Machine{messageID: messageID, model: model}
}

// Feed advances the machine with one fragment and returns the lifecycle
// events it implies, possibly none. Fragments after the terminal marker
// produce nothing.
func (m *Machine) Feed(frag unified.StreamFragment) []unified.StreamEvent {
	if m.state == stateDone {
		return nil
	}

	// Identity can only be adopted before message_start goes out; after
	// that the id must stay stable for the client.
	if m.state == stateNotStarted {
		if frag.MessageID != "" {
			m.messageID = frag.MessageID
		}
		if frag.Model != "" {
			m.model = frag.Model
		}
	}
	if frag.Usage != nil {
		m.mergeUsage(frag.Usage)
	}
	if frag.StopReason != "" {
		m.stopReason = frag.StopReason
	}

	var events []unified.StreamEvent

	// Facets are processed in fixed order: a fragment opening a tool call
	// can also carry its first argument piece.
	if frag.ToolName != "" || frag.ToolCallID != "" {
		events = append(events, m.start()...)
		events = append(events, m.closeBlock()...)
		id := frag.ToolCallID
		if id == "" {
			id = unified.NewToolCallID()
		}
		events = append(events, m.openBlock(unified.BlockToolUse, id, frag.ToolName))
	}

	if frag.ArgsDelta != "" {
		events = append(events, m.start()...)
		if m.state != stateBlockOpen || m.curKind != unified.BlockToolUse {
			// Arguments with no opening fragment: the source skipped the
			// call header. Open a block with a synthesized id so the
			// grammar stays intact.
			events = append(events, m.closeBlock()...)
			events = append(events, m.openBlock(unified.BlockToolUse, unified.NewToolCallID(), ""))
		}
		ev := m.event(unified.EventContentBlockDelta)
		ev.Index = m.curIndex
		ev.Block = unified.BlockToolUse
		ev.ArgsDelta = frag.ArgsDelta
		events = append(events, ev)
	}

	if frag.Text != "" {
		events = append(events, m.start()...)
		if m.state != stateBlockOpen || m.curKind != unified.BlockText {
			events = append(events, m.closeBlock()...)
			events = append(events, m.openBlock(unified.BlockText, "", ""))
		}
		ev := m.event(unified.EventContentBlockDelta)
		ev.Index = m.curIndex
		ev.Block = unified.BlockText
		ev.TextDelta = frag.Text
		events = append(events, ev)
	}

	if frag.Terminal {
		events = append(events, m.finish()...)
	}

	return events
}

// Finish closes the lifecycle when the source ended without a terminal
// marker. Safe to call after a terminal fragment; the closing sequence is
// emitted exactly once.
func (m *Machine) Finish() []unified.StreamEvent {
	return m.finish()
}

// event returns a lifecycle event stamped with the message identity.
func (m *Machine) event(t unified.StreamEventType) unified.StreamEvent {
	return unified.StreamEvent{Type: t, MessageID: m.messageID, Model: m.model}
}

func (m *Machine) start() []unified.StreamEvent {
	if m.state != stateNotStarted {
		return nil
	}
	m.state = stateBlockClosed
	ev := m.event(unified.EventMessageStart)
	if m.usage != nil && m.usage.InputTokens > 0 {
		ev.Usage = &unified.Usage{InputTokens: m.usage.InputTokens}
	}
	return []unified.StreamEvent{ev}
}

func (m *Machine) openBlock(kind unified.BlockKind, toolID, toolName string) unified.StreamEvent {
	m.state = stateBlockOpen
	m.curIndex = m.nextIndex
	m.nextIndex++
	m.curKind = kind

	ev := m.event(unified.EventContentBlockStart)
	ev.Index = m.curIndex
	ev.Block = kind
	if kind == unified.BlockToolUse {
		ev.ToolCallID = toolID
		ev.ToolName = toolName
		m.toolOpened = true
	}
	return ev
}

func (m *Machine) closeBlock() []unified.StreamEvent {
	if m.state != stateBlockOpen {
		return nil
	}
	m.state = stateBlockClosed
	ev := m.event(unified.EventContentBlockStop)
	ev.Index = m.curIndex
	return []unified.StreamEvent{ev}
}

func (m *Machine) finish() []unified.StreamEvent {
	if m.state == stateDone {
		return nil
	}

	// A stream that ends before any content still describes a message.
	events := m.start()
	events = append(events, m.closeBlock()...)
	m.state = stateDone

	stop := m.stopReason
	if stop == "" {
		stop = unified.StopEndTurn
		if m.toolOpened {
			stop = unified.StopToolUse
		}
	}

	delta := m.event(unified.EventMessageDelta)
	delta.StopReason = stop
	if m.usage != nil {
		delta.Usage = &unified.Usage{
			InputTokens:  m.usage.InputTokens,
			OutputTokens: m.usage.OutputTokens,
		}
	}
	return append(events, delta, m.event(unified.EventMessageStop))
}

func (m *Machine) mergeUsage(u *unified.Usage) {
	if m.usage == nil {
		m.usage = &unified.Usage{}
	}
	if u.InputTokens > 0 {
		m.usage.InputTokens = u.InputTokens
	}
	if u.OutputTokens > 0 {
		m.usage.OutputTokens = u.OutputTokens
	}
}
