package contract

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance of the conversation as the client sees it.
// Tool traffic from earlier requests is not replayed.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at,omitempty"`
}

// ToolCall is a capability invocation requested by the reasoning service.
type ToolCall struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the structured outcome of one ToolCall. Failures are carried
// in Success/ErrorType, never as Go errors.
type ToolResult struct {
	CallID    string    `json:"call_id"`
	Tool      string    `json:"tool"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ErrorType ErrorKind `json:"error_type,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Decision is the outcome of the first reasoning pass: plain text, or calls.
type Decision struct {
	Text  string
	Calls []ToolCall
}

func (d Decision) HasCalls() bool {
	return len(d.Calls) > 0
}
