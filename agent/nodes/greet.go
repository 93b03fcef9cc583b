package retainnode

import (
	"context"
	"fmt"

	"github.com/techflow/careline/agent/agents/roles"
	contractx "github.com/techflow/careline/agent/contract"
	statex "github.com/techflow/careline/agent/state"
	toolx "github.com/techflow/careline/agent/tool"
)

// Greet runs the first-line agent: resolve identity from the utterance,
// classify intent, produce a reply, and decide where the turn goes next.
func Greet(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	tools contractx.ToolGateway,
) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, ErrNoConversation
	}
	conv := in.Conv

	if !conv.IsAuthenticated() {
		if email := roles.ExtractEmail(in.Text); email != "" {
			if err := authenticate(ctx, conv, tools, email); err != nil {
				return nil, err
			}
		}
	}

	if !conv.HasIntent() {
		if intent := roles.ClassifyIntent(in.Text); intent != statex.IntentGeneral {
			conv.Intent = intent
		}
	}

	resp, err := models.Greeter().Greet(ctx, contractx.GreeterRequest{
		UserMessage: in.Text,
		Customer:    conv.Customer,
		Intent:      conv.Intent,
		Transcript:  conv.UserTranscript(5),
		Now:         in.Now,
	})
	if err != nil {
		return nil, err
	}

	conv.AppendAssistant(statex.AgentGreeter, resp.Message, in.Now)
	in.Message = resp.Message
	in.Agent = statex.AgentGreeter
	in.Route = routeFromGreeter(conv)
	conv.Routing = in.Route
	return in, nil
}

func authenticate(ctx context.Context, conv *statex.ConversationState, tools contractx.ToolGateway, email string) error {
	results, err := tools.Execute(ctx, string(contractx.AgentTypeGreeter), []contractx.ToolRequest{
		{Tool: toolx.ToolCustomerLookup, Args: map[string]any{"email": email}},
	})
	if err != nil {
		return err
	}
	if len(results) != 1 {
		return fmt.Errorf("%w: customer lookup returned %d results", contractx.ErrSchemaViolation, len(results))
	}

	// A lookup miss is not an error: the greeter will ask again.
	if results[0].Error != "" {
		return nil
	}

	out, ok := results[0].Result.(toolx.CustomerLookupOutput)
	if !ok || out.Customer == nil {
		return fmt.Errorf("%w: unexpected customer lookup result %T", contractx.ErrSchemaViolation, results[0].Result)
	}

	conv.Customer = out.Customer
	conv.CustomerEmail = out.Customer.Email
	conv.CustomerID = out.Customer.CustomerID
	return nil
}

func routeFromGreeter(conv *statex.ConversationState) statex.Routing {
	if !conv.IsAuthenticated() {
		return statex.RouteEnd
	}

	switch conv.Intent {
	case statex.IntentCancellation:
		return statex.RouteRetention
	case statex.IntentTechnical:
		return statex.RouteTechSupport
	case statex.IntentBilling:
		return statex.RouteBilling
	default:
		return statex.RouteEnd
	}
}
