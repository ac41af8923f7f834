package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

var (
	ErrInvalidMessage = fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	ErrInvalidHistory = fmt.Errorf("%w: history has an unknown role", contractx.ErrValidation)
)

// GraphInput is one user message. History is only consulted when no history
// store holds the session.
type GraphInput struct {
	SessionID string
	Text      string
	History   []contractx.Turn
}

type GraphOutput struct {
	Reply   string
	Calls   []contractx.ToolCall
	Results []contractx.ToolResult
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	History  []contractx.Turn
	Turns    []contractx.Turn
	Decision contractx.Decision
	Results  []contractx.ToolResult

	Reply string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	history := make([]contractx.Turn, 0, len(in.History))
	for _, t := range in.History {
		if t.Role != contractx.RoleUser && t.Role != contractx.RoleAssistant {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHistory, t.Role)
		}
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		history = append(history, t)
	}

	return &GraphState{
		SessionID: strings.TrimSpace(in.SessionID),
		Text:      text,
		Now:       nowFn().UTC(),
		History:   history,
	}, nil
}
