package retainnode

import (
	"context"
	"fmt"

	contractx "github.com/techflow/careline/agent/contract"
	statex "github.com/techflow/careline/agent/state"
)

// SaveState validates and persists the conversation at the end of the turn.
func SaveState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, ErrNoConversation
	}

	in.Conv.Touch(in.Now)
	if err := in.Conv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if err := store.Save(ctx, in.Conv); err != nil {
		return nil, err
	}

	return in, nil
}
