package claudemsg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireRequest mirrors the Claude-style messages API request shape for
// parsing. Optional numerics are pointers so unset survives the lift.
type wireRequest struct {
	Model       string        `json:"model"`
	System      systemField   `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   *int64        `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
	Thinking    *wireThinking `json:"thinking,omitempty"`
}

// systemField accepts the two wire encodings of the system prompt: a plain
// string or an array of text blocks. Multi-block prompts are joined with
// newlines at parse time.
type systemField struct {
	Text string
	Set  bool
}

func (s *systemField) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		s.Text = asString
		s.Set = true
		return nil
	}

	var asBlocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &asBlocks); err == nil {
		parts := make([]string, 0, len(asBlocks))
		for _, b := range asBlocks {
			if b.Type == "text" {
				parts = append(parts, b.Text)
			}
		}
		s.Text = strings.Join(parts, "\n")
		s.Set = true
		return nil
	}

	return fmt.Errorf("system must be a string or an array of text blocks")
}

// wireMessage is one conversation entry on the wire. Role is user or
// assistant only; system and tool roles do not exist in this dialect.
type wireMessage struct {
	Role    string      `json:"role"`
	Content wireContent `json:"content"`
}

// wireContent accepts a plain string or an array of typed blocks.
type wireContent struct {
	Text   string
	Blocks []wireBlock
	IsText bool
}

func (c *wireContent) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		c.Text = asString
		c.IsText = true
		return nil
	}

	var asBlocks []wireBlock
	if err := json.Unmarshal(data, &asBlocks); err == nil {
		c.Blocks = asBlocks
		return nil
	}

	return fmt.Errorf("content must be a string or an array of content blocks")
}

// wireBlock is the superset of the block shapes this dialect carries.
// Type discriminates; only the matching fields are meaningful.
type wireBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result; Content is itself a string or an array of text blocks
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`

	// image
	Source *wireImageSource `json:"source,omitempty"`
}

// flattenedToolResult collapses a tool_result block's content to a single
// string, the only shape single-content-string dialects can express.
func (b wireBlock) flattenedToolResult() (string, error) {
	if len(b.Content) == 0 {
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(b.Content, &asString); err == nil {
		return asString, nil
	}

	var asBlocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b.Content, &asBlocks); err == nil {
		parts := make([]string, 0, len(asBlocks))
		for _, blk := range asBlocks {
			if blk.Type == "text" {
				parts = append(parts, blk.Text)
			}
		}
		return strings.Join(parts, "\n"), nil
	}

	return "", fmt.Errorf("tool_result content must be a string or an array of text blocks")
}

// wireImageSource is the source object of an image block.
type wireImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// wireTool is a tool definition on the wire.
type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// wireThinking is the extended-thinking configuration.
type wireThinking struct {
	Type         string `json:"type"`
	BudgetTokens int64  `json:"budget_tokens,omitempty"`
}

// wireResponse mirrors the non-streaming response shape, used both for
// parsing upstream responses and for building responses toward clients.
type wireResponse struct {
	ID           string              `json:"id"`
	Type         string              `json:"type"`
	Role         string              `json:"role"`
	Model        string              `json:"model"`
	Content      []wireResponseBlock `json:"content"`
	StopReason   string              `json:"stop_reason,omitempty"`
	StopSequence *string             `json:"stop_sequence"`
	Usage        *wireUsage          `json:"usage,omitempty"`
}

// wireResponseBlock is a response content block: text or tool_use.
type wireResponseBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// wireUsage is the token accounting object in this dialect's naming.
type wireUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}
