package retainnode

import (
	"errors"
	"strings"
	"time"

	"github.com/techflow/careline/agent/offer"
	statex "github.com/techflow/careline/agent/state"
)

var (
	ErrInvalidMessage   = errors.New("message is empty")
	ErrInvalidSession   = errors.New("session id is empty")
	ErrNoConversation   = errors.New("conversation state is missing")
	ErrConversationOver = errors.New("conversation is already closed")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	SessionID     string
	Reply         string
	Agent         string
	FinalAction   string
	Status        statex.Status
	Authenticated bool
}

// GraphState is the mutable value threaded through the turn graph. Each node
// reads what it needs and records its contribution.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Conv *statex.ConversationState

	// OfferResult carries this turn's freshly computed offers, including the
	// presentation strategy the state does not persist.
	OfferResult *offer.Result

	// EscalationTrigger is what tripped the escalation this turn. It goes
	// into the notification payload; the cancellation reason on the
	// conversation stays untouched.
	EscalationTrigger string

	Message string
	Agent   string
	Route   statex.Routing
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
