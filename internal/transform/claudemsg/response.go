package claudemsg

import (
	"encoding/json"
	"fmt"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

// ResponseOut lifts a Claude-style response body into the unified model.
func (t *Transformer) ResponseOut(body []byte) (*unified.Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(wire.Content) == 0 {
		return nil, fmt.Errorf("%w: response carries no content blocks", transform.ErrNoContentInResponse)
	}

	resp := &unified.Response{
		ID:         wire.ID,
		Model:      wire.Model,
		StopReason: unified.MapClaudeStopReason(wire.StopReason),
	}
	if resp.ID == "" {
		resp.ID = unified.NewMessageID()
	}
	if wire.Usage != nil {
		resp.Usage = &unified.Usage{
			InputTokens:  wire.Usage.InputTokens,
			OutputTokens: wire.Usage.OutputTokens,
		}
	}

	// A single text block lifts to plain-string content; anything richer
	// keeps its block structure.
	if len(wire.Content) == 1 && wire.Content[0].Type == "text" {
		resp.Content = unified.TextContent(wire.Content[0].Text)
		return resp, nil
	}

	blocks := make([]unified.ContentBlock, 0, len(wire.Content))
	for _, b := range wire.Content {
		switch b.Type {
		case "text":
			blocks = append(blocks, unified.NewTextBlock(b.Text))
		case "tool_use":
			blocks = append(blocks, unified.NewToolUseBlock(b.ID, b.Name, b.Input))
		default:
			// thinking and other block kinds have no unified form; dropped.
		}
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no liftable content blocks", transform.ErrNoContentInResponse)
	}
	resp.Content = unified.BlockContent(blocks)

	return resp, nil
}

// ResponseIn lowers a unified response into the Claude-shaped body a client
// speaking this dialect expects. Content is always a block array on this
// wire, so plain-string content becomes a single text block.
func (t *Transformer) ResponseIn(resp *unified.Response) ([]byte, error) {
	wire := wireResponse{
		ID:         resp.ID,
		Type:       "message",
		Role:       "assistant",
		Model:      resp.Model,
		StopReason: string(resp.StopReason),
	}
	if wire.ID == "" {
		wire.ID = unified.NewMessageID()
	}
	if resp.Usage != nil {
		wire.Usage = &wireUsage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}
	}

	if !resp.Content.IsBlocks() {
		wire.Content = []wireResponseBlock{{Type: "text", Text: resp.Content.Text()}}
	} else {
		wire.Content = make([]wireResponseBlock, 0, len(resp.Content.Blocks()))
		for i, b := range resp.Content.Blocks() {
			switch {
			case b.OfText != nil:
				wire.Content = append(wire.Content, wireResponseBlock{Type: "text", Text: b.OfText.Text})
			case b.OfToolUse != nil:
				input := b.OfToolUse.Input
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				id := b.OfToolUse.ID
				if id == "" {
					id = unified.NewToolCallID()
				}
				wire.Content = append(wire.Content, wireResponseBlock{
					Type:  "tool_use",
					ID:    id,
					Name:  b.OfToolUse.Name,
					Input: input,
				})
			default:
				return nil, fmt.Errorf("response block %d cannot be expressed on this wire", i)
			}
		}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return body, nil
}
