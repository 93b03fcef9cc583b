package retainnode

import (
	"fmt"
	"strings"

	contractx "github.com/techflow/careline/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Conv == nil {
		return GraphOutput{}, ErrNoConversation
	}

	reply := strings.TrimSpace(in.Message)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: agent returned empty message", contractx.ErrValidation)
	}

	return GraphOutput{
		SessionID:     in.Conv.SessionID,
		Reply:         reply,
		Agent:         in.Agent,
		FinalAction:   in.Conv.FinalAction,
		Status:        in.Conv.Status,
		Authenticated: in.Conv.IsAuthenticated(),
	}, nil
}
