package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's conversation history. Messages are
// immutable once appended; callers that want history must retain the
// payloads of message.complete events themselves, the SDK does not persist
// them.
type Message struct {
	ID        string     `json:"messageId"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ToolCall records one tool invocation made by the assistant. Result stays
// empty until the matching message.tool result event arrives.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
}
