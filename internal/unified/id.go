package unified

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// randomToken returns a 32-character URL-safe token.
func randomToken() string {
	b := make([]byte, 24) // 24 bytes yields 32 URL-safe base64 characters
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	// RawURLEncoding avoids '+', '/' and trailing '='
	return base64.RawURLEncoding.EncodeToString(b)
}

// NewMessageID generates a Claude-style message id (msg_<token>). Used when
// an upstream response arrives without one.
func NewMessageID() string {
	return "msg_" + randomToken()
}

// NewCompletionID generates an OpenAI-style completion id (chatcmpl-<token>).
// Used when an upstream response arrives without one.
func NewCompletionID() string {
	return "chatcmpl-" + randomToken()
}

// NewToolCallID generates an OpenAI-style tool call id (call_<8-char-uuid>).
// Providers that omit tool call ids get one so the id-requiring side of a
// conversion always has something to reference.
func NewToolCallID() string {
	return fmt.Sprintf("call_%s", uuid.New().String()[:8])
}
