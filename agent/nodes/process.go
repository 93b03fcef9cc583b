package retainnode

import (
	"context"
	"fmt"

	"github.com/techflow/careline/agent/agents/roles"
	contractx "github.com/techflow/careline/agent/contract"
	statex "github.com/techflow/careline/agent/state"
	toolx "github.com/techflow/careline/agent/tool"
)

// Process finalizes the conversation: resolve what the customer decided,
// record it on the account, and produce the confirmation reply. After this
// node the conversation is completed.
func Process(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	tools contractx.ToolGateway,
) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, ErrNoConversation
	}
	conv := in.Conv
	if conv.Customer == nil {
		return nil, fmt.Errorf("%w: processing requires an authenticated customer", contractx.ErrValidation)
	}

	action := conv.FinalAction
	var details string
	if action == "" {
		decision := roles.DetectDecision(in.Text)
		action, details = roles.ResolveFinalAction(decision, conv.Offers, conv.Reason, conv.UserTranscript(3))
		conv.FinalAction = action
		conv.SelectedOffer = roles.SelectedOffer(action, conv.Offers)
	}

	toolResults, err := tools.Execute(ctx, string(contractx.AgentTypeProcessor), []contractx.ToolRequest{
		{Tool: toolx.ToolStatusUpdate, Args: map[string]any{
			"customer_id": conv.CustomerID,
			"action":      action,
			"details":     details,
		}},
	})
	if err != nil {
		return nil, err
	}

	resp, err := models.Processor().Process(ctx, contractx.ProcessorRequest{
		UserMessage:   in.Text,
		Customer:      conv.Customer,
		Reason:        conv.Reason,
		FinalAction:   action,
		SelectedOffer: conv.SelectedOffer,
		ToolResults:   toolResults,
	})
	if err != nil {
		return nil, err
	}

	conv.AppendAssistant(statex.AgentProcessor, resp.Message, in.Now)
	conv.Status = statex.StatusCompleted
	in.Message = resp.Message
	in.Agent = statex.AgentProcessor
	in.Route = statex.RouteEnd
	conv.Routing = in.Route
	return in, nil
}
