package unified

import "encoding/json"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Request is the provider-neutral form of a chat request.
//
// Optional numeric fields are pointers so an unset value can be distinguished
// from an explicit zero. No defaults are applied here: default substitution
// (max_tokens, temperature) is the job of the target transformer's RequestIn,
// never of the model itself.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   *int64
	Temperature *float64
	TopP        *float64
	Stream      bool
	Tools       []Tool

	// ReasoningEffort carries an OpenAI-style effort level (low|medium|high).
	// Empty means the client did not ask for extended reasoning.
	ReasoningEffort string
}

// Message is a single role-tagged conversation entry.
type Message struct {
	Role    Role
	Content MessageContent
}

// Tool is a provider-neutral tool definition. InputSchema holds the raw JSON
// Schema object describing the tool's parameters.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Usage counts tokens consumed by a request/response pair, in the neutral
// input/output naming. Transformers rename to the provider's convention
// (prompt_tokens/completion_tokens for OpenAI-compatible providers).
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the provider-neutral form of a non-streaming chat response.
type Response struct {
	ID         string
	Model      string
	Content    MessageContent
	StopReason StopReason
	Usage      *Usage
}
