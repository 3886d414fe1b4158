package claudemsg

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/tidwall/gjson"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

// streamPayload parses every Claude-style stream event data object; the
// Type field discriminates which members are populated.
type streamPayload struct {
	Type  string `json:"type"`
	Index int    `json:"index"`

	Message *struct {
		ID    string     `json:"id"`
		Model string     `json:"model"`
		Usage *wireUsage `json:"usage"`
	} `json:"message"`

	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`

	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`

	Usage *wireUsage `json:"usage"`

	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// DecodeStreamEvent lifts one Claude-style SSE event into a unified stream
// fragment. Unknown event types decode to a no-op fragment; an explicit
// upstream error event fails wrapping ErrStreamTransport so the pump treats
// it as terminal rather than a skippable bad line.
func (t *Transformer) DecodeStreamEvent(ev ssestream.Event) (unified.StreamFragment, error) {
	eventType := ev.Type
	if eventType == "" {
		// Some gateways omit the event: line and rely on the type field.
		eventType = gjson.GetBytes(ev.Data, "type").String()
	}

	switch eventType {
	case "ping":
		return unified.StreamFragment{}, nil

	case "message_start":
		var payload streamPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return unified.StreamFragment{}, fmt.Errorf("decode message_start: %w", err)
		}
		frag := unified.StreamFragment{}
		if payload.Message != nil {
			frag.MessageID = payload.Message.ID
			frag.Model = payload.Message.Model
			if payload.Message.Usage != nil {
				frag.Usage = &unified.Usage{InputTokens: payload.Message.Usage.InputTokens}
			}
		}
		return frag, nil

	case "content_block_start":
		var payload streamPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return unified.StreamFragment{}, fmt.Errorf("decode content_block_start: %w", err)
		}
		if payload.ContentBlock != nil && payload.ContentBlock.Type == "tool_use" {
			return unified.StreamFragment{
				ToolCallID: payload.ContentBlock.ID,
				ToolName:   payload.ContentBlock.Name,
			}, nil
		}
		// Text block boundaries are re-synthesized by the state machine.
		return unified.StreamFragment{}, nil

	case "content_block_delta":
		var payload streamPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return unified.StreamFragment{}, fmt.Errorf("decode content_block_delta: %w", err)
		}
		if payload.Delta == nil {
			return unified.StreamFragment{}, nil
		}
		switch payload.Delta.Type {
		case "text_delta":
			return unified.StreamFragment{Text: payload.Delta.Text}, nil
		case "input_json_delta":
			return unified.StreamFragment{ArgsDelta: payload.Delta.PartialJSON}, nil
		default:
			// thinking_delta, signature_delta: nothing to re-frame.
			return unified.StreamFragment{}, nil
		}

	case "content_block_stop":
		return unified.StreamFragment{}, nil

	case "message_delta":
		var payload streamPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return unified.StreamFragment{}, fmt.Errorf("decode message_delta: %w", err)
		}
		frag := unified.StreamFragment{}
		if payload.Delta != nil && payload.Delta.StopReason != "" {
			frag.StopReason = unified.MapClaudeStopReason(payload.Delta.StopReason)
		}
		if payload.Usage != nil {
			frag.Usage = &unified.Usage{OutputTokens: payload.Usage.OutputTokens}
		}
		return frag, nil

	case "message_stop":
		return unified.StreamFragment{Terminal: true}, nil

	case "error":
		var payload streamPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return unified.StreamFragment{}, fmt.Errorf("decode error event: %w", err)
		}
		if payload.Error != nil {
			return unified.StreamFragment{}, fmt.Errorf("%w: upstream %s: %s",
				transform.ErrStreamTransport, payload.Error.Type, payload.Error.Message)
		}
		return unified.StreamFragment{}, fmt.Errorf("%w: upstream error event", transform.ErrStreamTransport)

	default:
		// Unrecognized event types are expected as the dialect grows; skip.
		return unified.StreamFragment{}, nil
	}
}

// streamMessage is the message envelope inside a message_start event.
// Pointer stop fields serialize as explicit nulls, matching the dialect.
type streamMessage struct {
	ID           string              `json:"id"`
	Type         string              `json:"type"`
	Role         string              `json:"role"`
	Model        string              `json:"model"`
	Content      []wireResponseBlock `json:"content"`
	StopReason   *string             `json:"stop_reason"`
	StopSequence *string             `json:"stop_sequence"`
	Usage        wireUsage           `json:"usage"`
}

// EncodeStreamEvent lowers one unified lifecycle event into a framed
// Claude-style SSE unit: "event: <type>\ndata: <json>\n\n".
func (t *Transformer) EncodeStreamEvent(ev unified.StreamEvent) ([]byte, error) {
	var payload any

	switch ev.Type {
	case unified.EventMessageStart:
		msg := streamMessage{
			ID:      ev.MessageID,
			Type:    "message",
			Role:    "assistant",
			Model:   ev.Model,
			Content: []wireResponseBlock{},
		}
		if ev.Usage != nil {
			msg.Usage = wireUsage{InputTokens: ev.Usage.InputTokens}
		}
		payload = struct {
			Type    string        `json:"type"`
			Message streamMessage `json:"message"`
		}{"message_start", msg}

	case unified.EventContentBlockStart:
		block := wireResponseBlock{Type: "text"}
		if ev.Block == unified.BlockToolUse {
			block = wireResponseBlock{
				Type:  "tool_use",
				ID:    ev.ToolCallID,
				Name:  ev.ToolName,
				Input: json.RawMessage("{}"),
			}
		}
		payload = struct {
			Type         string            `json:"type"`
			Index        int               `json:"index"`
			ContentBlock wireResponseBlock `json:"content_block"`
		}{"content_block_start", ev.Index, block}

	case unified.EventContentBlockDelta:
		type deltaPayload struct {
			Type        string `json:"type"`
			Text        string `json:"text,omitempty"`
			PartialJSON string `json:"partial_json,omitempty"`
		}
		delta := deltaPayload{Type: "text_delta", Text: ev.TextDelta}
		if ev.Block == unified.BlockToolUse {
			delta = deltaPayload{Type: "input_json_delta", PartialJSON: ev.ArgsDelta}
		}
		payload = struct {
			Type  string       `json:"type"`
			Index int          `json:"index"`
			Delta deltaPayload `json:"delta"`
		}{"content_block_delta", ev.Index, delta}

	case unified.EventContentBlockStop:
		payload = struct {
			Type  string `json:"type"`
			Index int    `json:"index"`
		}{"content_block_stop", ev.Index}

	case unified.EventMessageDelta:
		var usage wireUsage
		if ev.Usage != nil {
			usage = wireUsage{OutputTokens: ev.Usage.OutputTokens}
		}
		payload = struct {
			Type  string `json:"type"`
			Delta struct {
				StopReason   string  `json:"stop_reason"`
				StopSequence *string `json:"stop_sequence"`
			} `json:"delta"`
			Usage wireUsage `json:"usage"`
		}{
			Type: "message_delta",
			Delta: struct {
				StopReason   string  `json:"stop_reason"`
				StopSequence *string `json:"stop_sequence"`
			}{StopReason: string(ev.StopReason)},
			Usage: usage,
		}

	case unified.EventMessageStop:
		payload = struct {
			Type string `json:"type"`
		}{"message_stop"}

	default:
		return nil, fmt.Errorf("unknown stream event type %q", ev.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", ev.Type, data), nil
}
