package retainnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/techflow/careline/agent/agents/roles"
	contractx "github.com/techflow/careline/agent/contract"
	"github.com/techflow/careline/agent/offer"
	statex "github.com/techflow/careline/agent/state"
	toolx "github.com/techflow/careline/agent/tool"
)

// Retain runs the retention specialist: pin down the cancellation reason,
// check for escalation triggers, gather policy context and offers, and read
// the customer's reaction to decide whether the processor takes over.
//
// Offers are computed exactly once per conversation. A decision to accept is
// honored only when offers were already on the table at the start of the
// turn; a decline always ends the retention attempt.
func Retain(
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
		return nil, fmt.Errorf("%w: retention requires an authenticated customer", contractx.ErrValidation)
	}

	if escalated, trigger := roles.DetectEscalation(in.Text); escalated {
		in.Route = statex.RouteEscalate
		conv.Routing = in.Route
		in.EscalationTrigger = trigger
		return in, nil
	}

	if strings.TrimSpace(conv.Reason) == "" {
		conv.Reason = roles.DetectReason(conv.UserTranscript(0))
	}

	hadOffers := len(conv.Offers) > 0
	decision := roles.DetectDecision(in.Text)
	if decision == roles.DecisionDecline || (decision == roles.DecisionAccept && hadOffers) {
		in.Route = statex.RouteProcessor
		conv.Routing = in.Route
		return in, nil
	}

	if roles.NeedsPolicyContext(conv.UserTranscript(3)) {
		if err := fetchPolicyContext(ctx, in, tools); err != nil {
			return nil, err
		}
	}

	result, err := ensureOffers(ctx, in, tools)
	if err != nil {
		return nil, err
	}

	resp, err := models.Retention().Retain(ctx, contractx.RetentionRequest{
		UserMessage:   in.Text,
		Customer:      conv.Customer,
		Reason:        conv.Reason,
		Offers:        result,
		PolicyContext: conv.PolicyContext,
		Transcript:    conv.UserTranscript(5),
	})
	if err != nil {
		return nil, err
	}

	conv.AppendAssistant(statex.AgentRetention, resp.Message, in.Now)
	in.Message = resp.Message
	in.Agent = statex.AgentRetention
	in.Route = statex.RouteEnd
	conv.Routing = in.Route
	return in, nil
}

func fetchPolicyContext(ctx context.Context, in *GraphState, tools contractx.ToolGateway) error {
	conv := in.Conv
	query := strings.ReplaceAll(conv.Reason, "_", " ") + " " + in.Text

	results, err := tools.Execute(ctx, string(contractx.AgentTypeRetention), []contractx.ToolRequest{
		{Tool: toolx.ToolPolicySearch, Args: map[string]any{"query": query}},
	})
	if err != nil {
		return err
	}
	if len(results) != 1 || results[0].Error != "" {
		return nil
	}

	out, ok := results[0].Result.(toolx.PolicySearchOutput)
	if !ok {
		return fmt.Errorf("%w: unexpected policy search result %T", contractx.ErrSchemaViolation, results[0].Result)
	}
	conv.PolicyContext = out.Context
	return nil
}

func ensureOffers(ctx context.Context, in *GraphState, tools contractx.ToolGateway) (offer.Result, error) {
	conv := in.Conv

	if len(conv.Offers) > 0 {
		// Re-present what was already computed; the strategy is rebuilt from
		// the persisted reason.
		result := offer.Calculate(conv.Customer.Tier, conv.Reason)
		result.Offers = conv.Offers
		in.OfferResult = &result
		return result, nil
	}

	results, err := tools.Execute(ctx, string(contractx.AgentTypeRetention), []contractx.ToolRequest{
		{Tool: toolx.ToolOfferCalculate, Args: map[string]any{
			"tier":   conv.Customer.Tier,
			"reason": conv.Reason,
		}},
	})
	if err != nil {
		return offer.Result{}, err
	}
	if len(results) != 1 {
		return offer.Result{}, fmt.Errorf("%w: offer calculation returned %d results", contractx.ErrSchemaViolation, len(results))
	}
	if results[0].Error != "" {
		return offer.Result{}, fmt.Errorf("%w: offer calculation: %s", contractx.ErrValidation, results[0].Error)
	}

	out, ok := results[0].Result.(toolx.OfferCalculateOutput)
	if !ok {
		return offer.Result{}, fmt.Errorf("%w: unexpected offer calculation result %T", contractx.ErrSchemaViolation, results[0].Result)
	}

	conv.Offers = out.Offers.Offers
	in.OfferResult = &out.Offers
	return out.Offers, nil
}
