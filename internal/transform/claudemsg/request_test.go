package claudemsg

import (
	"errors"
	"strconv"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/pivotproxy/pivot/internal/transform"
	"github.com/pivotproxy/pivot/internal/unified"
)

func ptr[T any](v T) *T { return &v }

func TestRequestOut_LiftsTextAndSystem(t *testing.T) {
	tr := New()

	req, err := tr.RequestOut([]byte(`{
		"model": "claude-3-5-sonnet-20241022",
		"system": "You are terse.",
		"max_tokens": 1024,
		"temperature": 0.5,
		"stream": true,
		"messages": [
			{"role": "user", "content": "hello"},
			{"role": "assistant", "content": "hi"}
		]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("model = %q", req.Model)
	}
	if req.MaxTokens == nil || *req.MaxTokens != 1024 {
		t.Errorf("max_tokens = %v, want 1024", req.MaxTokens)
	}
	if req.Temperature == nil || *req.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", req.Temperature)
	}
	if !req.Stream {
		t.Error("stream flag lost")
	}

	if len(req.Messages) != 3 {
		t.Fatalf("got %d messages, want 3 (system + 2)", len(req.Messages))
	}
	if req.Messages[0].Role != unified.RoleSystem || req.Messages[0].Content.Text() != "You are terse." {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != unified.RoleUser || req.Messages[1].Content.Text() != "hello" {
		t.Errorf("user message = %+v", req.Messages[1])
	}
	if req.Messages[2].Role != unified.RoleAssistant {
		t.Errorf("assistant role = %q", req.Messages[2].Role)
	}
}

func TestRequestOut_SystemBlockArray(t *testing.T) {
	tr := New()

	req, err := tr.RequestOut([]byte(`{
		"model": "claude-3-opus-20240229",
		"system": [
			{"type": "text", "text": "Line one."},
			{"type": "text", "text": "Line two."}
		],
		"messages": [{"role": "user", "content": "hi"}]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := req.Messages[0].Content.Text(); got != "Line one.\nLine two." {
		t.Errorf("joined system prompt = %q", got)
	}
}

func TestRequestOut_LiftsToolCycle(t *testing.T) {
	tr := New()

	req, err := tr.RequestOut([]byte(`{
		"model": "claude-3-5-sonnet-20241022",
		"messages": [
			{"role": "assistant", "content": [
				{"type": "text", "text": "Let me check."},
				{"type": "tool_use", "id": "toolu_01", "name": "get_weather", "input": {"city": "Oslo"}}
			]},
			{"role": "user", "content": [
				{"type": "tool_result", "tool_use_id": "toolu_01", "content": "12 degrees"}
			]},
			{"role": "user", "content": [
				{"type": "tool_result", "tool_use_id": "toolu_01", "content": [
					{"type": "text", "text": "12 degrees"},
					{"type": "text", "text": "light rain"}
				]}
			]}
		]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assistant := req.Messages[0].Content.Blocks()
	if len(assistant) != 2 {
		t.Fatalf("assistant blocks = %d, want 2", len(assistant))
	}
	use := assistant[1].OfToolUse
	if use == nil || use.ID != "toolu_01" || use.Name != "get_weather" {
		t.Fatalf("tool_use block = %+v", assistant[1])
	}
	if gjson.GetBytes(use.Input, "city").String() != "Oslo" {
		t.Errorf("tool input = %s", use.Input)
	}

	res := req.Messages[1].Content.Blocks()[0].OfToolResult
	if res == nil || res.ToolUseID != "toolu_01" || res.Content != "12 degrees" {
		t.Fatalf("string tool_result = %+v", res)
	}

	multi := req.Messages[2].Content.Blocks()[0].OfToolResult
	if multi == nil || multi.Content != "12 degrees\nlight rain" {
		t.Fatalf("block-array tool_result = %+v", multi)
	}
}

func TestRequestOut_LiftsImages(t *testing.T) {
	tr := New()

	req, err := tr.RequestOut([]byte(`{
		"model": "claude-3-5-sonnet-20241022",
		"messages": [{"role": "user", "content": [
			{"type": "image", "source": {"type": "base64", "media_type": "image/png", "data": "AAAA"}},
			{"type": "image", "source": {"type": "url", "url": "https://example.com/cat.png"}}
		]}]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocks := req.Messages[0].Content.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if img := blocks[0].OfImage; img == nil || img.MediaType != "image/png" || img.Data != "AAAA" {
		t.Errorf("base64 image = %+v", blocks[0])
	}
	if img := blocks[1].OfImage; img == nil || img.URL != "https://example.com/cat.png" {
		t.Errorf("url image = %+v", blocks[1])
	}
}

func TestRequestOut_ToolsAndThinking(t *testing.T) {
	tr := New()

	tests := []struct {
		name       string
		budget     int64
		wantEffort string
	}{
		{"small budget", 500, "low"},
		{"medium budget", 8192, "medium"},
		{"large budget", 100000, "high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tr.RequestOut([]byte(`{
				"model": "claude-3-5-sonnet-20241022",
				"messages": [{"role": "user", "content": "hi"}],
				"tools": [{"name": "get_weather", "description": "Weather lookup", "input_schema": {"type": "object"}}],
				"thinking": {"type": "enabled", "budget_tokens": ` + strconv.FormatInt(tt.budget, 10) + `}
			}`))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(req.Tools) != 1 || req.Tools[0].Name != "get_weather" {
				t.Fatalf("tools = %+v", req.Tools)
			}
			if req.ReasoningEffort != tt.wantEffort {
				t.Errorf("reasoning effort = %q, want %q", req.ReasoningEffort, tt.wantEffort)
			}
		})
	}
}

func TestRequestOut_RejectsMalformed(t *testing.T) {
	tr := New()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"model": `},
		{"empty messages", `{"model": "claude-3-5-sonnet-20241022", "messages": []}`},
		{"unknown role", `{"model": "m", "messages": [{"role": "wizard", "content": "hi"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.RequestOut([]byte(tt.body))
			if !errors.Is(err, transform.ErrMalformedRequest) {
				t.Fatalf("error = %v, want ErrMalformedRequest", err)
			}
		})
	}
}

func TestRequestIn_AppliesDefaults(t *testing.T) {
	tr := New()

	body, err := tr.RequestIn(&unified.Request{
		Model:    "anthropic/claude-3.5-sonnet",
		Messages: []unified.Message{{Role: unified.RoleUser, Content: unified.TextContent("hello")}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "model").String(); got != "claude-3-5-sonnet" {
		t.Errorf("model = %q, want Claude-style id restored", got)
	}
	if got := gjson.GetBytes(body, "max_tokens").Int(); got != 4096 {
		t.Errorf("max_tokens = %d, want default 4096", got)
	}
	if gjson.GetBytes(body, "temperature").Exists() {
		t.Error("temperature should be absent when unset")
	}
	if gjson.GetBytes(body, "stream").Exists() {
		t.Error("stream should be absent for non-streaming requests")
	}
	if got := gjson.GetBytes(body, "messages.0.content.0.text").String(); got != "hello" {
		t.Errorf("message text = %q", got)
	}
}

func TestRequestIn_CarriesSampling(t *testing.T) {
	tr := New()

	body, err := tr.RequestIn(&unified.Request{
		Model:       "claude-3-5-sonnet-20241022",
		MaxTokens:   ptr(int64(2048)),
		Temperature: ptr(0.2),
		TopP:        ptr(0.9),
		Stream:      true,
		Messages:    []unified.Message{{Role: unified.RoleUser, Content: unified.TextContent("hi")}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "max_tokens").Int(); got != 2048 {
		t.Errorf("max_tokens = %d", got)
	}
	if got := gjson.GetBytes(body, "temperature").Float(); got != 0.2 {
		t.Errorf("temperature = %v", got)
	}
	if got := gjson.GetBytes(body, "top_p").Float(); got != 0.9 {
		t.Errorf("top_p = %v", got)
	}
	if !gjson.GetBytes(body, "stream").Bool() {
		t.Error("stream flag not spliced in")
	}
}

func TestRequestIn_HoistsSystem(t *testing.T) {
	tr := New()

	body, err := tr.RequestIn(&unified.Request{
		Model: "claude-3-5-sonnet-20241022",
		Messages: []unified.Message{
			{Role: unified.RoleSystem, Content: unified.TextContent("Be brief.")},
			{Role: unified.RoleUser, Content: unified.TextContent("hi")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "system.0.text").String(); got != "Be brief." {
		t.Errorf("system = %q", got)
	}
	if got := gjson.GetBytes(body, "messages.#").Int(); got != 1 {
		t.Errorf("messages = %d, want 1 (system hoisted out)", got)
	}
	if got := gjson.GetBytes(body, "messages.0.role").String(); got != "user" {
		t.Errorf("remaining role = %q", got)
	}
}

func TestRequestIn_MergesConsecutiveUserTurns(t *testing.T) {
	tr := New()

	body, err := tr.RequestIn(&unified.Request{
		Model: "claude-3-5-sonnet-20241022",
		Messages: []unified.Message{
			{Role: unified.RoleUser, Content: unified.TextContent("check the weather")},
			{Role: unified.RoleTool, Content: unified.BlockContent([]unified.ContentBlock{
				unified.NewToolResultBlock("toolu_01", "12 degrees"),
			})},
			{Role: unified.RoleUser, Content: unified.TextContent("thanks")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "messages.#").Int(); got != 1 {
		t.Fatalf("messages = %d, want 1 merged user turn", got)
	}
	types := gjson.GetBytes(body, "messages.0.content.#.type").Array()
	if len(types) != 3 || types[0].String() != "text" || types[1].String() != "tool_result" || types[2].String() != "text" {
		t.Errorf("merged block types = %v", types)
	}
	if got := gjson.GetBytes(body, "messages.0.content.1.tool_use_id").String(); got != "toolu_01" {
		t.Errorf("tool_use_id = %q", got)
	}
}

func TestRequestIn_LowersTools(t *testing.T) {
	tr := New()

	body, err := tr.RequestIn(&unified.Request{
		Model:    "claude-3-5-sonnet-20241022",
		Messages: []unified.Message{{Role: unified.RoleUser, Content: unified.TextContent("hi")}},
		Tools: []unified.Tool{{
			Name:        "get_weather",
			Description: "Weather lookup",
			InputSchema: []byte(`{
				"type": "object",
				"properties": {"city": {"type": "string"}},
				"required": ["city"],
				"additionalProperties": false
			}`),
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "tools.0.name").String(); got != "get_weather" {
		t.Errorf("tool name = %q", got)
	}
	if got := gjson.GetBytes(body, "tools.0.description").String(); got != "Weather lookup" {
		t.Errorf("tool description = %q", got)
	}
	if got := gjson.GetBytes(body, "tools.0.input_schema.type").String(); got != "object" {
		t.Errorf("schema type = %q", got)
	}
	if got := gjson.GetBytes(body, "tools.0.input_schema.properties.city.type").String(); got != "string" {
		t.Errorf("schema properties = %s", gjson.GetBytes(body, "tools.0.input_schema").Raw)
	}
	if got := gjson.GetBytes(body, "tools.0.input_schema.required.0").String(); got != "city" {
		t.Errorf("schema required = %q", got)
	}
	addl := gjson.GetBytes(body, "tools.0.input_schema.additionalProperties")
	if !addl.Exists() || addl.Bool() {
		t.Errorf("additionalProperties = %s, want false carried through", addl.Raw)
	}
}

func TestRequestIn_ThinkingFromEffort(t *testing.T) {
	tr := New()

	body, err := tr.RequestIn(&unified.Request{
		Model:           "claude-3-5-sonnet-20241022",
		Messages:        []unified.Message{{Role: unified.RoleUser, Content: unified.TextContent("hi")}},
		ReasoningEffort: "medium",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gjson.GetBytes(body, "thinking.type").String(); got != "enabled" {
		t.Errorf("thinking.type = %q", got)
	}
	if got := gjson.GetBytes(body, "thinking.budget_tokens").Int(); got != 8192 {
		t.Errorf("budget_tokens = %d, want 8192", got)
	}
}

func TestRequestIn_RejectsUnknownRole(t *testing.T) {
	tr := New()

	_, err := tr.RequestIn(&unified.Request{
		Model:    "claude-3-5-sonnet-20241022",
		Messages: []unified.Message{{Role: unified.Role("wizard"), Content: unified.TextContent("hi")}},
	})
	if !errors.Is(err, transform.ErrMalformedRequest) {
		t.Fatalf("error = %v, want ErrMalformedRequest", err)
	}
}

func TestRequestRoundTrip_PreservesSemantics(t *testing.T) {
	tr := New()

	original := []byte(`{
		"model": "claude-3-5-sonnet-20241022",
		"system": "Be helpful.",
		"max_tokens": 512,
		"messages": [
			{"role": "user", "content": "what is the weather in Oslo?"},
			{"role": "assistant", "content": [
				{"type": "tool_use", "id": "toolu_01", "name": "get_weather", "input": {"city": "Oslo"}}
			]},
			{"role": "user", "content": [
				{"type": "tool_result", "tool_use_id": "toolu_01", "content": "12 degrees"}
			]}
		]
	}`)

	req, err := tr.RequestOut(original)
	if err != nil {
		t.Fatalf("lift: %v", err)
	}
	body, err := tr.RequestIn(req)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}

	if got := gjson.GetBytes(body, "model").String(); got != "claude-3-5-sonnet-20241022" {
		t.Errorf("model = %q", got)
	}
	if got := gjson.GetBytes(body, "system.0.text").String(); got != "Be helpful." {
		t.Errorf("system = %q", got)
	}
	if got := gjson.GetBytes(body, "max_tokens").Int(); got != 512 {
		t.Errorf("max_tokens = %d", got)
	}
	if got := gjson.GetBytes(body, "messages.1.content.0.id").String(); got != "toolu_01" {
		t.Errorf("tool_use id = %q", got)
	}
	if got := gjson.GetBytes(body, "messages.2.content.0.type").String(); got != "tool_result" {
		t.Errorf("tool_result type = %q", got)
	}
}
