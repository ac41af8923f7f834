package contract

import "context"

// Reasoner is the boundary to the language-model service.
type Reasoner interface {
	// Plan is the first pass: conversation plus capability catalog in, text or calls out.
	Plan(ctx context.Context, turns []Turn) (Decision, error)
	// Respond is the second pass: the same conversation plus the calls and their results.
	Respond(ctx context.Context, turns []Turn, calls []ToolCall, results []ToolResult) (string, error)
}

type ToolGateway interface {
	Execute(ctx context.Context, calls []ToolCall) []ToolResult
}

type HistoryStore interface {
	Load(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	Delete(ctx context.Context, sessionID string) error
}
