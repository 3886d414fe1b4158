package openaichat

import (
	"encoding/json"
	"fmt"
)

// wireRequest mirrors the chat-completions request shape, used both for
// parsing client requests and for building provider requests. Optional
// numerics are pointers so unset survives the round trip.
type wireRequest struct {
	Model           string             `json:"model"`
	Messages        []wireMessage      `json:"messages"`
	MaxTokens       *int64             `json:"max_tokens,omitempty"`
	Temperature     *float64           `json:"temperature,omitempty"`
	TopP            *float64           `json:"top_p,omitempty"`
	Stream          bool               `json:"stream,omitempty"`
	StreamOptions   *wireStreamOptions `json:"stream_options,omitempty"`
	Tools           []wireTool         `json:"tools,omitempty"`
	ReasoningEffort string             `json:"reasoning_effort,omitempty"`
}

// wireStreamOptions requests usage accounting on the final stream chunk.
type wireStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// wireMessage is one conversation entry. Content is a pointer because
// assistant messages that only carry tool calls have null or absent content.
type wireMessage struct {
	Role       string         `json:"role"`
	Content    *wireContent   `json:"content,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// text returns the plain-text rendering of the message content, joining
// text parts and ignoring everything else.
func (m wireMessage) text() string {
	if m.Content == nil {
		return ""
	}
	if m.Content.IsText {
		return m.Content.Text
	}
	var out string
	for _, p := range m.Content.Parts {
		if p.Type != "text" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p.Text
	}
	return out
}

// wireContent accepts and emits the two content encodings: a plain string
// or an array of typed parts.
type wireContent struct {
	Text   string
	Parts  []wirePart
	IsText bool
}

func (c wireContent) MarshalJSON() ([]byte, error) {
	if c.IsText {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

func (c *wireContent) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.IsText = true
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		c.Text = asString
		c.IsText = true
		return nil
	}

	var asParts []wirePart
	if err := json.Unmarshal(data, &asParts); err == nil {
		c.Parts = asParts
		return nil
	}

	return fmt.Errorf("content must be a string or an array of content parts")
}

// wirePart is a typed content part: text or image_url.
type wirePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

// wireToolCall is a requested function invocation. Index appears only on
// streaming chunks, grouping argument deltas to their call.
type wireToolCall struct {
	Index    *int             `json:"index,omitempty"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function wireFunctionCall `json:"function"`
}

// wireFunctionCall carries the function name and its arguments as a string
// of JSON, complete in responses and fragmentary in stream chunks.
type wireFunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// wireTool is a function tool definition.
type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// wireResponse mirrors the non-streaming chat-completion shape.
type wireResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage,omitempty"`
}

type wireChoice struct {
	Index        int           `json:"index"`
	Message      wireAssistant `json:"message"`
	FinishReason *string       `json:"finish_reason"`
}

// wireAssistant is the assistant message of a completed choice. Content is
// a pointer so tool-call-only responses serialize it as an explicit null.
type wireAssistant struct {
	Role      string         `json:"role"`
	Content   *string        `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

// wireChunk mirrors one streaming chunk. Usage-only chunks carry an empty
// choices array.
type wireChunk struct {
	ID      string            `json:"id"`
	Object  string            `json:"object"`
	Created int64             `json:"created"`
	Model   string            `json:"model"`
	Choices []wireChunkChoice `json:"choices"`
	Usage   *wireUsage        `json:"usage,omitempty"`
}

type wireChunkChoice struct {
	Index        int       `json:"index"`
	Delta        wireDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
}

// wireDelta is the incremental piece of an assistant message in a chunk.
type wireDelta struct {
	Role      string         `json:"role,omitempty"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

// wireUsage is the token accounting object in this dialect's naming.
type wireUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}
