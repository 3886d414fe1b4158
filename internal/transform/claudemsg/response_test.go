package claudemsg

import (
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

func TestResponseOut_SingleTextBlock(t *testing.T) {
	tr := New()

	resp, err := tr.ResponseOut([]byte(`{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-sonnet-20241022",
		"content": [{"type": "text", "text": "Hello there."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 4}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ID != "msg_01" {
		t.Errorf("id = %q", resp.ID)
	}
	if resp.Content.IsBlocks() {
		t.Error("single text block should lift to plain text content")
	}
	if got := resp.Content.Text(); got != "Hello there." {
		t.Errorf("text = %q", got)
	}
	if resp.StopReason != unified.StopEndTurn {
		t.Errorf("stop reason = %q", resp.StopReason)
	}
	if resp.Usage == nil || resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 4 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestResponseOut_ToolUseBlocks(t *testing.T) {
	tr := New()

	resp, err := tr.ResponseOut([]byte(`{
		"id": "msg_02",
		"model": "claude-3-5-sonnet-20241022",
		"content": [
			{"type": "text", "text": "Checking."},
			{"type": "tool_use", "id": "toolu_01", "name": "get_weather", "input": {"city": "Oslo"}},
			{"type": "thinking", "thinking": "hmm"}
		],
		"stop_reason": "tool_use"
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Content.IsBlocks() {
		t.Fatal("mixed content should keep block structure")
	}
	blocks := resp.Content.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (thinking dropped)", len(blocks))
	}
	if blocks[0].OfText == nil || blocks[0].OfText.Text != "Checking." {
		t.Errorf("text block = %+v", blocks[0])
	}
	use := blocks[1].OfToolUse
	if use == nil || use.ID != "toolu_01" || use.Name != "get_weather" {
		t.Fatalf("tool_use block = %+v", blocks[1])
	}
	if resp.StopReason != unified.StopToolUse {
		t.Errorf("stop reason = %q", resp.StopReason)
	}
}

func TestResponseOut_NoContent(t *testing.T) {
	tr := New()

	tests := []struct {
		name string
		body string
	}{
		{"empty array", `{"id": "msg_03", "model": "m", "content": [], "stop_reason": "end_turn"}`},
		{"only unliftable blocks", `{"id": "msg_03", "model": "m", "content": [{"type": "thinking", "thinking": "x"}, {"type": "redacted_thinking"}], "stop_reason": "end_turn"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.ResponseOut([]byte(tt.body))
			if !errors.Is(err, transform.ErrNoContentInResponse) {
				t.Fatalf("error = %v, want ErrNoContentInResponse", err)
			}
		})
	}
}

func TestResponseOut_GeneratesMissingID(t *testing.T) {
	tr := New()

	resp, err := tr.ResponseOut([]byte(`{
		"model": "claude-3-5-sonnet-20241022",
		"content": [{"type": "text", "text": "hi"}],
		"stop_reason": "end_turn"
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "msg_") {
		t.Errorf("generated id = %q, want msg_ prefix", resp.ID)
	}
}

func TestResponseIn_TextContent(t *testing.T) {
	tr := New()

	body, err := tr.ResponseIn(&unified.Response{
		ID:         "msg_04",
		Model:      "claude-3-5-sonnet-20241022",
		Content:    unified.TextContent("All done."),
		StopReason: unified.StopEndTurn,
		Usage:      &unified.Usage{InputTokens: 7, OutputTokens: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "type").String(); got != "message" {
		t.Errorf("type = %q", got)
	}
	if got := gjson.GetBytes(body, "role").String(); got != "assistant" {
		t.Errorf("role = %q", got)
	}
	if got := gjson.GetBytes(body, "content.0.text").String(); got != "All done." {
		t.Errorf("content = %q", got)
	}
	if got := gjson.GetBytes(body, "stop_reason").String(); got != "end_turn" {
		t.Errorf("stop_reason = %q", got)
	}
	seq := gjson.GetBytes(body, "stop_sequence")
	if !seq.Exists() || seq.Type != gjson.Null {
		t.Errorf("stop_sequence = %s, want explicit null", seq.Raw)
	}
	if got := gjson.GetBytes(body, "usage.output_tokens").Int(); got != 3 {
		t.Errorf("output_tokens = %d", got)
	}
}

func TestResponseIn_ToolUseDefaults(t *testing.T) {
	tr := New()

	body, err := tr.ResponseIn(&unified.Response{
		Model: "claude-3-5-sonnet-20241022",
		Content: unified.BlockContent([]unified.ContentBlock{
			unified.NewToolUseBlock("", "get_weather", nil),
		}),
		StopReason: unified.StopToolUse,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(gjson.GetBytes(body, "id").String(), "msg_") {
		t.Errorf("missing id should be generated, got %q", gjson.GetBytes(body, "id").String())
	}
	if !strings.HasPrefix(gjson.GetBytes(body, "content.0.id").String(), "call_") {
		t.Errorf("tool call id = %q, want generated call_ prefix", gjson.GetBytes(body, "content.0.id").String())
	}
	if got := gjson.GetBytes(body, "content.0.input").Raw; got != "{}" {
		t.Errorf("empty input = %s, want {}", got)
	}
}
