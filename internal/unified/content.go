package unified

import "encoding/json"

// MessageContent is the tagged variant behind a message body: either a plain
// string or an ordered sequence of content blocks. The two constructors are
// the only way to build one; transformers switch on IsBlocks exhaustively
// instead of inspecting shapes dynamically.
type MessageContent struct {
	text   string
	blocks []ContentBlock
	tagged bool // true when the blocks arm is active
}

// TextContent builds plain-string content.
func TextContent(text string) MessageContent {
	return MessageContent{text: text}
}

// BlockContent builds block-sequence content.
func BlockContent(blocks []ContentBlock) MessageContent {
	return MessageContent{blocks: blocks, tagged: true}
}

// IsBlocks reports whether the blocks arm of the variant is active.
func (c MessageContent) IsBlocks() bool { return c.tagged }

// Text returns the plain-string arm. Valid only when IsBlocks is false.
func (c MessageContent) Text() string { return c.text }

// Blocks returns the block-sequence arm. Valid only when IsBlocks is true.
func (c MessageContent) Blocks() []ContentBlock { return c.blocks }

// ContentBlock is a tagged union over the block kinds a message can carry.
// Exactly one Of* field is non-nil.
type ContentBlock struct {
	OfText       *TextBlock
	OfImage      *ImageBlock
	OfToolUse    *ToolUseBlock
	OfToolResult *ToolResultBlock
}

// TextBlock is a run of plain text.
type TextBlock struct {
	Text string
}

// ImageBlock is an inline or referenced image. Exactly one of Data (base64
// payload, with MediaType set) or URL is non-empty.
type ImageBlock struct {
	MediaType string
	Data      string
	URL       string
}

// ToolUseBlock is a model-initiated tool invocation. Input holds the raw
// JSON arguments object.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResultBlock carries the outcome of a tool invocation back to the model.
// Content is always a flattened string: providers that deliver block-shaped
// tool results have them collapsed at lift time, because single-content-string
// providers can only express the result as one string on a role=tool message.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
}

// NewTextBlock builds a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{OfText: &TextBlock{Text: text}}
}

// NewImageBlockBase64 builds an inline base64 image block.
func NewImageBlockBase64(mediaType, data string) ContentBlock {
	return ContentBlock{OfImage: &ImageBlock{MediaType: mediaType, Data: data}}
}

// NewImageBlockURL builds an image block referencing a remote URL.
func NewImageBlockURL(url string) ContentBlock {
	return ContentBlock{OfImage: &ImageBlock{URL: url}}
}

// NewToolUseBlock builds a tool invocation block.
func NewToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{OfToolUse: &ToolUseBlock{ID: id, Name: name, Input: input}}
}

// NewToolResultBlock builds a tool result block.
func NewToolResultBlock(toolUseID, content string) ContentBlock {
	return ContentBlock{OfToolResult: &ToolResultBlock{ToolUseID: toolUseID, Content: content}}
}
