package claudemsg

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/sjson"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

// defaultMaxTokens is substituted when a unified request carries no
// max_tokens: the field is wire-required in this dialect.
const defaultMaxTokens = 4096

// RequestOut lifts a Claude-style wire request into the unified model.
func (t *Transformer) RequestOut(body []byte) (*unified.Request, error) {
	var wire wireRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", transform.ErrMalformedRequest, err)
	}
	if len(wire.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", transform.ErrMalformedRequest)
	}

	req := &unified.Request{
		Model:       wire.Model,
		MaxTokens:   wire.MaxTokens,
		Temperature: wire.Temperature,
		TopP:        wire.TopP,
		Stream:      wire.Stream,
	}

	// The top-level system prompt becomes a leading role=system message so
	// transformers for dialects with a real system role can express it.
	if wire.System.Set {
		req.Messages = append(req.Messages, unified.Message{
			Role:    unified.RoleSystem,
			Content: unified.TextContent(wire.System.Text),
		})
	}

	for i, msg := range wire.Messages {
		lifted, err := liftMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: %w", i, err)
		}
		req.Messages = append(req.Messages, lifted)
	}

	for _, tool := range wire.Tools {
		req.Tools = append(req.Tools, unified.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}

	if wire.Thinking != nil && wire.Thinking.Type == "enabled" {
		req.ReasoningEffort = effortFromBudget(wire.Thinking.BudgetTokens)
	}

	return req, nil
}

// liftMessage converts one wire message into a unified message.
func liftMessage(msg wireMessage) (unified.Message, error) {
	var role unified.Role
	switch msg.Role {
	case "user":
		role = unified.RoleUser
	case "assistant":
		role = unified.RoleAssistant
	default:
		return unified.Message{}, fmt.Errorf("%w: unknown role %q", transform.ErrMalformedRequest, msg.Role)
	}

	if msg.Content.IsText {
		return unified.Message{Role: role, Content: unified.TextContent(msg.Content.Text)}, nil
	}

	blocks := make([]unified.ContentBlock, 0, len(msg.Content.Blocks))
	for i, b := range msg.Content.Blocks {
		switch b.Type {
		case "text":
			blocks = append(blocks, unified.NewTextBlock(b.Text))
		case "tool_use":
			blocks = append(blocks, unified.NewToolUseBlock(b.ID, b.Name, b.Input))
		case "tool_result":
			content, err := b.flattenedToolResult()
			if err != nil {
				return unified.Message{}, fmt.Errorf("content[%d]: %w", i, err)
			}
			blocks = append(blocks, unified.NewToolResultBlock(b.ToolUseID, content))
		case "image":
			if b.Source == nil {
				continue
			}
			switch b.Source.Type {
			case "base64":
				blocks = append(blocks, unified.NewImageBlockBase64(b.Source.MediaType, b.Source.Data))
			case "url":
				blocks = append(blocks, unified.NewImageBlockURL(b.Source.URL))
			}
		default:
			// Blocks the unified model cannot express (thinking, documents,
			// server tool use) are dropped, not failed: the lift is lossy-safe.
		}
	}

	return unified.Message{Role: role, Content: unified.BlockContent(blocks)}, nil
}

// RequestIn lowers a unified request into Claude-style wire bytes. The body
// is built on anthropic-sdk-go param types so the encoding matches the SDK's
// wire format exactly, with unset optionals pruned.
func (t *Transformer) RequestIn(req *unified.Request) ([]byte, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(transform.MapModelIn(req.Model)),
		MaxTokens: defaultMaxTokens,
	}
	if req.MaxTokens != nil {
		params.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(*req.TopP)
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case unified.RoleSystem:
			// No system role on this wire: hoist into the top-level field.
			params.System = append(params.System, anthropic.TextBlockParam{Text: systemText(msg.Content)})

		case unified.RoleUser, unified.RoleAssistant, unified.RoleTool:
			blocks, err := lowerContent(msg.Content)
			if err != nil {
				return nil, fmt.Errorf("messages[%d]: %w", i, err)
			}
			if len(blocks) == 0 {
				continue
			}

			role := anthropic.MessageParamRoleUser
			if msg.Role == unified.RoleAssistant {
				role = anthropic.MessageParamRoleAssistant
			}
			// Tool results travel as user messages in this dialect.

			// Consecutive same-role messages are merged: the dialect requires
			// alternating user/assistant turns.
			if n := len(params.Messages); n > 0 && params.Messages[n-1].Role == role {
				params.Messages[n-1].Content = append(params.Messages[n-1].Content, blocks...)
				continue
			}
			params.Messages = append(params.Messages, anthropic.MessageParam{Role: role, Content: blocks})

		default:
			return nil, fmt.Errorf("%w: unknown role %q", transform.ErrMalformedRequest, msg.Role)
		}
	}

	for i, tool := range req.Tools {
		toolParam, err := lowerTool(tool)
		if err != nil {
			return nil, fmt.Errorf("tools[%d]: %w", i, err)
		}
		params.Tools = append(params.Tools, toolParam)
	}

	if budget := budgetFromEffort(req.ReasoningEffort); budget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	// The SDK leaves the stream flag to its transport layer; on raw wire
	// bytes it has to be spliced in.
	if req.Stream {
		body, err = sjson.SetBytes(body, "stream", true)
		if err != nil {
			return nil, fmt.Errorf("set stream flag: %w", err)
		}
	}

	return body, nil
}

// systemText flattens system message content to the single string the
// top-level field carries.
func systemText(content unified.MessageContent) string {
	if !content.IsBlocks() {
		return content.Text()
	}
	var parts []string
	for _, b := range content.Blocks() {
		if b.OfText != nil {
			parts = append(parts, b.OfText.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// lowerContent converts unified message content into SDK content blocks.
// Empty text produces no block; callers drop messages that end up empty.
func lowerContent(content unified.MessageContent) ([]anthropic.ContentBlockParamUnion, error) {
	if !content.IsBlocks() {
		if content.Text() == "" {
			return nil, nil
		}
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(content.Text())}, nil
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(content.Blocks()))
	for i, b := range content.Blocks() {
		switch {
		case b.OfText != nil:
			if b.OfText.Text == "" {
				continue
			}
			blocks = append(blocks, anthropic.NewTextBlock(b.OfText.Text))

		case b.OfImage != nil:
			if b.OfImage.URL != "" {
				blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{
					URL: b.OfImage.URL,
				}))
			} else {
				blocks = append(blocks, anthropic.NewImageBlockBase64(b.OfImage.MediaType, b.OfImage.Data))
			}

		case b.OfToolUse != nil:
			input := json.RawMessage("{}")
			if len(b.OfToolUse.Input) > 0 {
				input = b.OfToolUse.Input
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(b.OfToolUse.ID, input, b.OfToolUse.Name))

		case b.OfToolResult != nil:
			blocks = append(blocks, anthropic.NewToolResultBlock(
				b.OfToolResult.ToolUseID, b.OfToolResult.Content, false))

		default:
			return nil, fmt.Errorf("content block %d has no variant set", i)
		}
	}
	return blocks, nil
}

// lowerTool converts a unified tool definition into an SDK tool param.
// The dialect splits the JSON Schema into properties/required plus extra
// fields instead of carrying the flat schema object.
func lowerTool(tool unified.Tool) (anthropic.ToolUnionParam, error) {
	toolParam := anthropic.ToolParam{
		Name:        tool.Name,
		InputSchema: anthropic.ToolInputSchemaParam{},
	}
	if tool.Description != "" {
		toolParam.Description = anthropic.String(tool.Description)
	}

	if len(tool.InputSchema) > 0 {
		var schema map[string]any
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
			return anthropic.ToolUnionParam{}, fmt.Errorf("decode input schema: %w", err)
		}

		if props, ok := schema["properties"]; ok {
			toolParam.InputSchema.Properties = props
		}
		if req, ok := schema["required"].([]any); ok {
			var required []string
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
			toolParam.InputSchema.Required = required
		}

		// Schema fields without dedicated struct fields (e.g. additionalProperties)
		// survive via ExtraFields.
		var extraFields map[string]any
		for key, value := range schema {
			if key != "type" && key != "properties" && key != "required" {
				if extraFields == nil {
					extraFields = make(map[string]any)
				}
				extraFields[key] = value
			}
		}
		toolParam.InputSchema.ExtraFields = extraFields
	}

	return anthropic.ToolUnionParam{OfTool: &toolParam}, nil
}

// budgetFromEffort maps OpenAI-style reasoning effort to a thinking token
// budget. Unknown efforts yield 0, leaving thinking unset.
func budgetFromEffort(effort string) int64 {
	switch effort {
	case "low":
		return 1024
	case "medium":
		return 8192
	case "high":
		return 24576
	default:
		return 0
	}
}

// effortFromBudget is the inverse lift, bucketing explicit budgets into the
// three effort levels.
func effortFromBudget(budget int64) string {
	switch {
	case budget <= 0:
		return ""
	case budget <= 1024:
		return "low"
	case budget <= 8192:
		return "medium"
	default:
		return "high"
	}
}
