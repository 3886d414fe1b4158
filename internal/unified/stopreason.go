package unified

// StopReason is the closed vocabulary for why generation ended. Every
// provider-native finish reason maps into one of these three values.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopToolUse   StopReason = "tool_use"
)

// MapOpenAIFinishReason maps an OpenAI-style finish_reason to the unified
// vocabulary. The mapping is total: unrecognized reasons collapse to
// end_turn by policy, not error, because new finish reasons appear without
// notice and a conversion proxy must not fail a whole response over one.
func MapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopEndTurn
	case "length":
		return StopMaxTokens
	case "tool_calls":
		return StopToolUse
	case "function_call":
		// Legacy function calling predates the tool_calls API but signals
		// the same thing: the model wants a function invoked.
		return StopToolUse
	default:
		// content_filter and any future reasons: the turn is over.
		return StopEndTurn
	}
}

// MapClaudeStopReason maps a Claude-style stop_reason to the unified
// vocabulary. Identity on the three unified values; everything else
// collapses to end_turn.
func MapClaudeStopReason(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopEndTurn
	case "max_tokens":
		return StopMaxTokens
	case "tool_use":
		return StopToolUse
	case "stop_sequence":
		// A client-supplied stop sequence fired; the turn ended normally.
		return StopEndTurn
	default:
		// refusal, pause_turn and any future reasons: the turn is over.
		return StopEndTurn
	}
}

// OpenAIFinishReason lowers a unified stop reason to the OpenAI-style
// finish_reason string, the inverse of MapOpenAIFinishReason.
func (s StopReason) OpenAIFinishReason() string {
	switch s {
	case StopEndTurn:
		return "stop"
	case StopMaxTokens:
		return "length"
	case StopToolUse:
		return "tool_calls"
	default:
		return "stop"
	}
}
