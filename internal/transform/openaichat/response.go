package openaichat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

// ResponseOut lifts a chat-completion response into the unified model. Only
// the first choice is considered; the proxy never requests more than one.
func (t *Transformer) ResponseOut(body []byte) (*unified.Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(wire.Choices) == 0 {
		return nil, fmt.Errorf("%w: response carries no choices", transform.ErrNoContentInResponse)
	}

	choice := wire.Choices[0]
	resp := &unified.Response{
		ID:    wire.ID,
		Model: wire.Model,
	}
	if resp.ID == "" {
		resp.ID = unified.NewCompletionID()
	}
	var finish string
	if choice.FinishReason != nil {
		finish = *choice.FinishReason
	}
	resp.StopReason = unified.MapOpenAIFinishReason(finish)
	if wire.Usage != nil {
		resp.Usage = &unified.Usage{
			InputTokens:  wire.Usage.PromptTokens,
			OutputTokens: wire.Usage.CompletionTokens,
		}
	}

	msg := choice.Message
	if len(msg.ToolCalls) == 0 {
		if msg.Content == nil || *msg.Content == "" {
			return nil, fmt.Errorf("%w: choice carries neither content nor tool calls", transform.ErrNoContentInResponse)
		}
		resp.Content = unified.TextContent(*msg.Content)
		return resp, nil
	}

	var blocks []unified.ContentBlock
	if msg.Content != nil && *msg.Content != "" {
		blocks = append(blocks, unified.NewTextBlock(*msg.Content))
	}
	for _, call := range msg.ToolCalls {
		id := call.ID
		if id == "" {
			id = unified.NewToolCallID()
		}
		args := json.RawMessage("{}")
		if call.Function.Arguments != "" {
			args = json.RawMessage(call.Function.Arguments)
		}
		blocks = append(blocks, unified.NewToolUseBlock(id, call.Function.Name, args))
	}
	resp.Content = unified.BlockContent(blocks)

	return resp, nil
}

// ResponseIn lowers a unified response into a chat-completion body with a
// single choice. Text blocks collapse into the message content string; tool
// use blocks become tool calls, leaving content null when nothing remains.
func (t *Transformer) ResponseIn(resp *unified.Response) ([]byte, error) {
	assistant := wireAssistant{Role: "assistant"}

	if !resp.Content.IsBlocks() {
		text := resp.Content.Text()
		assistant.Content = &text
	} else {
		var text string
		for i, b := range resp.Content.Blocks() {
			switch {
			case b.OfText != nil:
				if text != "" {
					text += "\n"
				}
				text += b.OfText.Text

			case b.OfToolUse != nil:
				id := b.OfToolUse.ID
				if id == "" {
					id = unified.NewToolCallID()
				}
				args := "{}"
				if len(b.OfToolUse.Input) > 0 {
					args = string(b.OfToolUse.Input)
				}
				assistant.ToolCalls = append(assistant.ToolCalls, wireToolCall{
					ID:       id,
					Type:     "function",
					Function: wireFunctionCall{Name: b.OfToolUse.Name, Arguments: args},
				})

			default:
				return nil, fmt.Errorf("response block %d cannot be expressed on this wire", i)
			}
		}
		if text != "" {
			assistant.Content = &text
		}
	}

	id := resp.ID
	if id == "" {
		id = unified.NewCompletionID()
	}
	finish := resp.StopReason.OpenAIFinishReason()

	wire := wireResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.Model,
		Choices: []wireChoice{{Index: 0, Message: assistant, FinishReason: &finish}},
	}
	if resp.Usage != nil {
		wire.Usage = &wireUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return body, nil
}
