package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/techflow/careline/agent/contract"
	nodex "github.com/techflow/careline/agent/nodes"
	statex "github.com/techflow/careline/agent/state"
)

var (
	ErrInvalidMessage   = nodex.ErrInvalidMessage
	ErrInvalidSession   = nodex.ErrInvalidSession
	ErrConversationOver = nodex.ErrConversationOver
)

// Result is the outcome of one conversation turn.
type Result struct {
	SessionID     string
	Reply         string
	Agent         string
	FinalAction   string
	Status        statex.Status
	Authenticated bool
}

type Orchestrator struct {
	store    statex.Store
	models   contractx.Registry
	tools    contractx.ToolGateway
	notifier contractx.EscalationNotifier

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	tools contractx.ToolGateway,
	notifier contractx.EscalationNotifier,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	o := &Orchestrator{
		store:    store,
		models:   models,
		tools:    tools,
		notifier: notifier,
		now:      time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (Result, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		SessionID:     out.SessionID,
		Reply:         out.Reply,
		Agent:         out.Agent,
		FinalAction:   out.FinalAction,
		Status:        out.Status,
		Authenticated: out.Authenticated,
	}, nil
}

func (o *Orchestrator) onNotifyError(err error) {
	log.Error().Err(err).Msg("escalation notify failed")
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, contractx.Escalation) error {
	return nil
}
