package reasoner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

type Option func(*options)

type options struct {
	today func() string
}

// WithToday supplies the date written into the system prompt.
func WithToday(today func() string) Option {
	return func(o *options) {
		if today != nil {
			o.today = today
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		today: func() string { return time.Now().Format("2006-01-02") },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// callID keeps provider ids and fills the gaps so results can be paired.
func callID(id string, i int) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return fmt.Sprintf("call_%d", i)
}

// resultPayload is the JSON the reasoning service sees for one tool result.
func resultPayload(r contractx.ToolResult) (string, error) {
	raw, err := json.Marshal(struct {
		Success   bool                `json:"success"`
		Message   string              `json:"message"`
		ErrorType contractx.ErrorKind `json:"error_type,omitempty"`
		Data      any                 `json:"data,omitempty"`
	}{r.Success, r.Message, r.ErrorType, r.Data})
	if err != nil {
		return "", fmt.Errorf("%w: marshal result for tool=%s: %v", contractx.ErrValidation, r.Tool, err)
	}
	return string(raw), nil
}

func lastUserTurn(turns []contractx.Turn) error {
	if len(turns) == 0 {
		return fmt.Errorf("%w: conversation is empty", contractx.ErrValidation)
	}
	if turns[len(turns)-1].Role != contractx.RoleUser {
		return fmt.Errorf("%w: conversation must end with a user turn", contractx.ErrValidation)
	}
	return nil
}
