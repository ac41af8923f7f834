package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

const (
	NodeValidateRequest = "validate_request"
	NodeLoadHistory     = "load_history"
	NodePlan            = "plan"
	NodeExecuteTools    = "execute_tools"
	NodeRespond         = "respond"
	NodeFinalizeReply   = "finalize_reply"
	NodeSaveHistory     = "save_history"
)

// FallbackReply is sent when the reasoning service produced no text.
const FallbackReply = "Sorry, I couldn't put an answer together just now. Could you say that again?"

func FinalizeReply(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Reply = strings.TrimSpace(in.Reply)
	if in.Reply == "" {
		log.Warn().Str("session_id", in.SessionID).Int("tool_calls", len(in.Decision.Calls)).Msg("empty reply, using fallback")
		in.Reply = FallbackReply
	}
	return in, nil
}

// SaveHistory appends the user turn and the reply. A failure is logged only;
// the user already has an answer.
func SaveHistory(ctx context.Context, in *GraphState, store contractx.HistoryStore) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if store != nil && in.SessionID != "" {
		err := store.Append(ctx, in.SessionID,
			contractx.Turn{Role: contractx.RoleUser, Content: in.Text, At: in.Now},
			contractx.Turn{Role: contractx.RoleAssistant, Content: in.Reply, At: in.Now},
		)
		if err != nil {
			log.Warn().Err(err).Str("session_id", in.SessionID).Msg("save history failed")
		}
	}

	return GraphOutput{
		Reply:   in.Reply,
		Calls:   in.Decision.Calls,
		Results: in.Results,
	}, nil
}
