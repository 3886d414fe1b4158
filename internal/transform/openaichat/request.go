package openaichat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

const (
	// defaultMaxTokens is substituted when a unified request carries no
	// token limit; the dialect treats the field as optional but several
	// compatible providers reject its absence.
	defaultMaxTokens = 4096

	// defaultTemperature is applied when the client never chose one.
	defaultTemperature = 0.7
)

// RequestOut lifts a chat-completions request into the unified model.
func (t *Transformer) RequestOut(body []byte) (*unified.Request, error) {
	var wire wireRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", transform.ErrMalformedRequest, err)
	}
	if len(wire.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", transform.ErrMalformedRequest)
	}

	req := &unified.Request{
		Model:           wire.Model,
		MaxTokens:       wire.MaxTokens,
		Temperature:     wire.Temperature,
		TopP:            wire.TopP,
		Stream:          wire.Stream,
		ReasoningEffort: wire.ReasoningEffort,
	}

	for i, msg := range wire.Messages {
		lifted, err := liftMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: %w", i, err)
		}
		req.Messages = append(req.Messages, lifted)
	}

	for _, tool := range wire.Tools {
		if tool.Type != "" && tool.Type != "function" {
			continue
		}
		req.Tools = append(req.Tools, unified.Tool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: tool.Function.Parameters,
		})
	}

	return req, nil
}

// liftMessage converts one wire message into a unified message.
func liftMessage(msg wireMessage) (unified.Message, error) {
	switch msg.Role {
	case "system", "developer":
		return unified.Message{Role: unified.RoleSystem, Content: unified.TextContent(msg.text())}, nil

	case "tool":
		return unified.Message{Role: unified.RoleTool, Content: unified.BlockContent([]unified.ContentBlock{
			unified.NewToolResultBlock(msg.ToolCallID, msg.text()),
		})}, nil

	case "user":
		return unified.Message{Role: unified.RoleUser, Content: liftContent(msg.Content)}, nil

	case "assistant":
		if len(msg.ToolCalls) == 0 {
			return unified.Message{Role: unified.RoleAssistant, Content: liftContent(msg.Content)}, nil
		}
		var blocks []unified.ContentBlock
		if text := msg.text(); text != "" {
			blocks = append(blocks, unified.NewTextBlock(text))
		}
		for _, call := range msg.ToolCalls {
			args := json.RawMessage("{}")
			if call.Function.Arguments != "" {
				args = json.RawMessage(call.Function.Arguments)
			}
			blocks = append(blocks, unified.NewToolUseBlock(call.ID, call.Function.Name, args))
		}
		return unified.Message{Role: unified.RoleAssistant, Content: unified.BlockContent(blocks)}, nil

	default:
		return unified.Message{}, fmt.Errorf("%w: unknown role %q", transform.ErrMalformedRequest, msg.Role)
	}
}

// liftContent converts wire content into unified message content. Parts the
// unified model cannot express (audio) are dropped, not failed.
func liftContent(c *wireContent) unified.MessageContent {
	if c == nil {
		return unified.TextContent("")
	}
	if c.IsText {
		return unified.TextContent(c.Text)
	}

	blocks := make([]unified.ContentBlock, 0, len(c.Parts))
	for _, p := range c.Parts {
		switch p.Type {
		case "text":
			blocks = append(blocks, unified.NewTextBlock(p.Text))
		case "image_url":
			if p.ImageURL == nil {
				continue
			}
			if mediaType, data, ok := splitDataURL(p.ImageURL.URL); ok {
				blocks = append(blocks, unified.NewImageBlockBase64(mediaType, data))
			} else {
				blocks = append(blocks, unified.NewImageBlockURL(p.ImageURL.URL))
			}
		}
	}
	return unified.BlockContent(blocks)
}

// RequestIn lowers a unified request into chat-completions wire bytes,
// applying the dialect defaults for max_tokens and temperature when the
// client left them unset.
func (t *Transformer) RequestIn(req *unified.Request) ([]byte, error) {
	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	wire := wireRequest{
		Model:           transform.MapModelOut(req.Model),
		MaxTokens:       &maxTokens,
		Temperature:     &temperature,
		TopP:            req.TopP,
		Stream:          req.Stream,
		ReasoningEffort: req.ReasoningEffort,
	}
	if req.Stream {
		// Usage arrives on the final chunk only when asked for.
		wire.StreamOptions = &wireStreamOptions{IncludeUsage: true}
	}

	for i, msg := range req.Messages {
		lowered, err := lowerMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: %w", i, err)
		}
		wire.Messages = append(wire.Messages, lowered...)
	}

	for _, tool := range req.Tools {
		wire.Tools = append(wire.Tools, wireTool{
			Type: "function",
			Function: wireToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return body, nil
}

// lowerMessage converts one unified message into wire messages. Tool result
// blocks split off into their own role "tool" messages, placed before the
// rest of the turn so they directly follow the assistant's tool calls.
func lowerMessage(msg unified.Message) ([]wireMessage, error) {
	var role string
	switch msg.Role {
	case unified.RoleSystem:
		role = "system"
	case unified.RoleUser, unified.RoleTool:
		role = "user"
	case unified.RoleAssistant:
		role = "assistant"
	default:
		return nil, fmt.Errorf("%w: unknown role %q", transform.ErrMalformedRequest, msg.Role)
	}

	if !msg.Content.IsBlocks() {
		return []wireMessage{{Role: role, Content: textContent(msg.Content.Text())}}, nil
	}

	var out []wireMessage
	var parts []wirePart
	var calls []wireToolCall

	for i, b := range msg.Content.Blocks() {
		switch {
		case b.OfText != nil:
			if b.OfText.Text == "" {
				continue
			}
			parts = append(parts, wirePart{Type: "text", Text: b.OfText.Text})

		case b.OfImage != nil:
			url := b.OfImage.URL
			if url == "" {
				url = buildDataURL(b.OfImage.MediaType, b.OfImage.Data)
			}
			parts = append(parts, wirePart{Type: "image_url", ImageURL: &wireImageURL{URL: url}})

		case b.OfToolUse != nil:
			args := "{}"
			if len(b.OfToolUse.Input) > 0 {
				args = string(b.OfToolUse.Input)
			}
			calls = append(calls, wireToolCall{
				ID:       b.OfToolUse.ID,
				Type:     "function",
				Function: wireFunctionCall{Name: b.OfToolUse.Name, Arguments: args},
			})

		case b.OfToolResult != nil:
			out = append(out, wireMessage{
				Role:       "tool",
				ToolCallID: b.OfToolResult.ToolUseID,
				Content:    textContent(b.OfToolResult.Content),
			})

		default:
			return nil, fmt.Errorf("content block %d has no variant set", i)
		}
	}

	if len(parts) > 0 || len(calls) > 0 {
		main := wireMessage{Role: role, ToolCalls: calls}
		switch {
		case len(parts) == 1 && parts[0].Type == "text":
			main.Content = textContent(parts[0].Text)
		case len(parts) > 0:
			main.Content = &wireContent{Parts: parts}
		}
		out = append(out, main)
	}

	return out, nil
}

func textContent(s string) *wireContent {
	return &wireContent{Text: s, IsText: true}
}

// splitDataURL unpacks a base64 data URL into its media type and payload.
func splitDataURL(url string) (mediaType, data string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", "", false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	return strings.TrimSuffix(meta, ";base64"), payload, true
}

func buildDataURL(mediaType, data string) string {
	return "data:" + mediaType + ";base64," + data
}
