package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

// maxTurns bounds how much history is replayed to the reasoning service.
const maxTurns = 40

// LoadHistory builds the conversation for this request. A history store
// failure degrades to the client-supplied history.
func LoadHistory(ctx context.Context, in *GraphState, store contractx.HistoryStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	turns := in.History
	if store != nil && in.SessionID != "" {
		stored, err := store.Load(ctx, in.SessionID)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("session_id", in.SessionID).Msg("load history failed, using request history")
		case len(stored) > 0:
			turns = stored
		}
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	in.Turns = append(append([]contractx.Turn(nil), turns...), contractx.Turn{
		Role:    contractx.RoleUser,
		Content: in.Text,
		At:      in.Now,
	})
	return in, nil
}
