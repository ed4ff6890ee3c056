package domain

import (
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ToolCall is a tool invocation requested by the completion engine
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message represents one entry of a conversation thread
type Message struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"` // assistant turns that requested tools
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolName   string      `json:"tool_name,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ChatRequest represents an inbound chat message
type ChatRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id" validate:"required"`
}

// ChatFrame is one event of the chat stream
type ChatFrame struct {
	Chunk string `json:"chunk"`
}

// StreamDone terminates every chat stream
const StreamDone = "[DONE]"
