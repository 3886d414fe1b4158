package openaichat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/pivotproxy/pivot/internal/unified"
)

var doneMarker = []byte("[DONE]")

// DecodeStreamEvent lifts one chat-completions stream chunk into a unified
// stream fragment. The dialect frames chunks as bare data: lines, so the
// event name is empty and everything rides in the payload.
func (t *Transformer) DecodeStreamEvent(ev ssestream.Event) (unified.StreamFragment, error) {
	data := bytes.TrimSpace(ev.Data)
	if len(data) == 0 {
		return unified.StreamFragment{}, nil
	}
	if bytes.Equal(data, doneMarker) {
		return unified.StreamFragment{Terminal: true}, nil
	}

	var chunk wireChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return unified.StreamFragment{}, fmt.Errorf("decode chunk: %w", err)
	}

	frag := unified.StreamFragment{MessageID: chunk.ID, Model: chunk.Model}
	if chunk.Usage != nil {
		frag.Usage = &unified.Usage{
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
		}
	}
	if len(chunk.Choices) == 0 {
		// Usage-only tail chunk when stream_options asked for accounting.
		return frag, nil
	}

	choice := chunk.Choices[0]
	frag.Text = choice.Delta.Content
	if len(choice.Delta.ToolCalls) > 0 {
		// Providers emit one tool call element per chunk; argument pieces
		// for parallel calls arrive on separate chunks keyed by index.
		call := choice.Delta.ToolCalls[0]
		if call.Function.Name != "" {
			frag.ToolCallID = call.ID
			frag.ToolName = call.Function.Name
		}
		if call.Function.Arguments != "" {
			frag.ArgsDelta = call.Function.Arguments
		}
	}
	if choice.FinishReason != nil && *choice.FinishReason != "" {
		frag.StopReason = unified.MapOpenAIFinishReason(*choice.FinishReason)
	}

	return frag, nil
}

// EncodeStreamEvent lowers one unified lifecycle event into a framed
// chat-completions stream unit: "data: <json>\n\n", with the closing event
// rendered as the [DONE] marker. Events with no chunk expression (text
// block boundaries) return a nil frame.
func (t *Transformer) EncodeStreamEvent(ev unified.StreamEvent) ([]byte, error) {
	chunk := wireChunk{
		ID:      ev.MessageID,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   ev.Model,
	}

	switch ev.Type {
	case unified.EventMessageStart:
		chunk.Choices = []wireChunkChoice{{Delta: wireDelta{Role: "assistant"}}}

	case unified.EventContentBlockStart:
		if ev.Block != unified.BlockToolUse {
			return nil, nil
		}
		idx := ev.Index
		chunk.Choices = []wireChunkChoice{{Delta: wireDelta{ToolCalls: []wireToolCall{{
			Index:    &idx,
			ID:       ev.ToolCallID,
			Type:     "function",
			Function: wireFunctionCall{Name: ev.ToolName},
		}}}}}

	case unified.EventContentBlockDelta:
		if ev.Block == unified.BlockToolUse {
			idx := ev.Index
			chunk.Choices = []wireChunkChoice{{Delta: wireDelta{ToolCalls: []wireToolCall{{
				Index:    &idx,
				Function: wireFunctionCall{Arguments: ev.ArgsDelta},
			}}}}}
		} else {
			chunk.Choices = []wireChunkChoice{{Delta: wireDelta{Content: ev.TextDelta}}}
		}

	case unified.EventContentBlockStop:
		return nil, nil

	case unified.EventMessageDelta:
		finish := ev.StopReason.OpenAIFinishReason()
		chunk.Choices = []wireChunkChoice{{Delta: wireDelta{}, FinishReason: &finish}}
		if ev.Usage != nil {
			chunk.Usage = &wireUsage{
				PromptTokens:     ev.Usage.InputTokens,
				CompletionTokens: ev.Usage.OutputTokens,
				TotalTokens:      ev.Usage.InputTokens + ev.Usage.OutputTokens,
			}
		}

	case unified.EventMessageStop:
		return []byte("data: [DONE]\n\n"), nil

	default:
		return nil, fmt.Errorf("unknown stream event type %q", ev.Type)
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return fmt.Appendf(nil, "data: %s\n\n", data), nil
}
