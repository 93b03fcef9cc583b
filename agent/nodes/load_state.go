package retainnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/techflow/careline/agent/contract"
	statex "github.com/techflow/careline/agent/state"
)

// LoadState fetches the session's conversation or starts a fresh one, then
// appends the incoming user message to the transcript.
func LoadState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := store.Load(ctx, in.SessionID)
	if errors.Is(err, statex.ErrStateNotFound) {
		st = statex.NewConversationState(in.SessionID, in.Now)
	} else if err != nil {
		return nil, err
	}

	if st.IsTerminal() {
		return nil, fmt.Errorf("%w: status=%s", ErrConversationOver, st.Status)
	}

	st.AppendUser(in.Text, in.Now)
	in.Conv = st
	return in, nil
}
