package openaichat

import (
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

func TestResponseOut_TextChoice(t *testing.T) {
	tr := New()

	resp, err := tr.ResponseOut([]byte(`{
		"id": "chatcmpl-123",
		"object": "chat.completion",
		"model": "anthropic/claude-3.5-sonnet",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello there."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ID != "chatcmpl-123" {
		t.Errorf("id = %q", resp.ID)
	}
	if resp.Content.IsBlocks() || resp.Content.Text() != "Hello there." {
		t.Errorf("content = %+v", resp.Content)
	}
	if resp.StopReason != unified.StopEndTurn {
		t.Errorf("stop reason = %q", resp.StopReason)
	}
	if resp.Usage == nil || resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 4 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestResponseOut_ToolCalls(t *testing.T) {
	tr := New()

	resp, err := tr.ResponseOut([]byte(`{
		"id": "chatcmpl-456",
		"model": "anthropic/claude-3.5-sonnet",
		"choices": [{"index": 0, "message": {
			"role": "assistant",
			"content": null,
			"tool_calls": [
				{"id": "call_abc", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"Oslo\"}"}},
				{"id": "", "type": "function", "function": {"name": "get_time", "arguments": ""}}
			]
		}, "finish_reason": "tool_calls"}]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Content.IsBlocks() {
		t.Fatal("tool call response should lift to blocks")
	}
	blocks := resp.Content.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	first := blocks[0].OfToolUse
	if first == nil || first.ID != "call_abc" || first.Name != "get_weather" {
		t.Fatalf("first call = %+v", blocks[0])
	}
	second := blocks[1].OfToolUse
	if second == nil || !strings.HasPrefix(second.ID, "call_") {
		t.Fatalf("missing call id should be generated, got %+v", second)
	}
	if string(second.Input) != "{}" {
		t.Errorf("empty arguments = %s, want {}", second.Input)
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
		{"no choices", `{"id": "chatcmpl-1", "model": "m", "choices": []}`},
		{"empty message", `{"id": "chatcmpl-1", "model": "m", "choices": [{"index": 0, "message": {"role": "assistant", "content": ""}, "finish_reason": "stop"}]}`},
		{"null content without calls", `{"id": "chatcmpl-1", "model": "m", "choices": [{"index": 0, "message": {"role": "assistant", "content": null}, "finish_reason": "stop"}]}`},
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

func TestResponseIn_Text(t *testing.T) {
	tr := New()

	body, err := tr.ResponseIn(&unified.Response{
		ID:         "msg_01",
		Model:      "claude-3-5-sonnet-20241022",
		Content:    unified.TextContent("All done."),
		StopReason: unified.StopEndTurn,
		Usage:      &unified.Usage{InputTokens: 7, OutputTokens: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "object").String(); got != "chat.completion" {
		t.Errorf("object = %q", got)
	}
	if gjson.GetBytes(body, "created").Int() == 0 {
		t.Error("created timestamp missing")
	}
	choice := gjson.GetBytes(body, "choices.0")
	if choice.Get("message.role").String() != "assistant" {
		t.Errorf("role = %q", choice.Get("message.role").String())
	}
	if choice.Get("message.content").String() != "All done." {
		t.Errorf("content = %q", choice.Get("message.content").String())
	}
	if choice.Get("finish_reason").String() != "stop" {
		t.Errorf("finish_reason = %q", choice.Get("finish_reason").String())
	}
	usage := gjson.GetBytes(body, "usage")
	if usage.Get("prompt_tokens").Int() != 7 || usage.Get("completion_tokens").Int() != 3 || usage.Get("total_tokens").Int() != 10 {
		t.Errorf("usage = %s", usage.Raw)
	}
}

func TestResponseIn_ToolUse(t *testing.T) {
	tr := New()

	body, err := tr.ResponseIn(&unified.Response{
		ID:    "msg_02",
		Model: "claude-3-5-sonnet-20241022",
		Content: unified.BlockContent([]unified.ContentBlock{
			unified.NewToolUseBlock("toolu_01", "get_weather", []byte(`{"city":"Oslo"}`)),
		}),
		StopReason: unified.StopToolUse,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() || content.Type != gjson.Null {
		t.Errorf("content = %s, want explicit null for tool-only response", content.Raw)
	}
	call := gjson.GetBytes(body, "choices.0.message.tool_calls.0")
	if call.Get("id").String() != "toolu_01" || call.Get("function.name").String() != "get_weather" {
		t.Errorf("tool_call = %s", call.Raw)
	}
	if call.Get("function.arguments").String() != `{"city":"Oslo"}` {
		t.Errorf("arguments = %q", call.Get("function.arguments").String())
	}
	if got := gjson.GetBytes(body, "choices.0.finish_reason").String(); got != "tool_calls" {
		t.Errorf("finish_reason = %q", got)
	}
}

func TestResponseIn_MixedBlocksJoinText(t *testing.T) {
	tr := New()

	body, err := tr.ResponseIn(&unified.Response{
		Model: "claude-3-5-sonnet-20241022",
		Content: unified.BlockContent([]unified.ContentBlock{
			unified.NewTextBlock("Checking."),
			unified.NewToolUseBlock("toolu_01", "get_weather", []byte(`{}`)),
		}),
		StopReason: unified.StopToolUse,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "choices.0.message.content").String(); got != "Checking." {
		t.Errorf("content = %q", got)
	}
	if !strings.HasPrefix(gjson.GetBytes(body, "id").String(), "chatcmpl-") {
		t.Errorf("missing id should be generated, got %q", gjson.GetBytes(body, "id").String())
	}
}
