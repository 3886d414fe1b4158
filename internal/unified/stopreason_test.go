package unified

import "testing"

func TestMapOpenAIFinishReason(t *testing.T) {
	tests := []struct {
		reason string
		want   StopReason
	}{
		{"stop", StopEndTurn},
		{"length", StopMaxTokens},
		{"tool_calls", StopToolUse},
		{"function_call", StopToolUse},
		{"content_filter", StopEndTurn},
		{"", StopEndTurn},
		{"some-future-reason", StopEndTurn},
	}

	for _, tt := range tests {
		if got := MapOpenAIFinishReason(tt.reason); got != tt.want {
			t.Errorf("MapOpenAIFinishReason(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestMapClaudeStopReason(t *testing.T) {
	tests := []struct {
		reason string
		want   StopReason
	}{
		{"end_turn", StopEndTurn},
		{"max_tokens", StopMaxTokens},
		{"tool_use", StopToolUse},
		{"stop_sequence", StopEndTurn},
		{"refusal", StopEndTurn},
		{"pause_turn", StopEndTurn},
		{"", StopEndTurn},
	}

	for _, tt := range tests {
		if got := MapClaudeStopReason(tt.reason); got != tt.want {
			t.Errorf("MapClaudeStopReason(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestOpenAIFinishReasonRoundTrip(t *testing.T) {
	// Lowering a unified stop reason and lifting it back must be identity.
	for _, reason := range []StopReason{StopEndTurn, StopMaxTokens, StopToolUse} {
		lowered := reason.OpenAIFinishReason()
		if got := MapOpenAIFinishReason(lowered); got != reason {
			t.Errorf("round trip %q -> %q -> %q", reason, lowered, got)
		}
	}
}
