package retainnode

import (
	"context"

	contractx "github.com/techflow/careline/agent/contract"
	statex "github.com/techflow/careline/agent/state"
)

// Terminal handoff nodes. These reply with fixed transfer scripts; the
// actual transfer happens outside this system.

const (
	techSupportReply = "I'm transferring you to our technical support team who can help with your device issue. They'll be with you shortly."
	billingReply     = "I'm transferring you to our billing department who can help explain your charges. They'll assist you right away."
	escalationReply  = "I understand this needs special attention. I'm escalating your case to a manager who will contact you within one business day."
)

const (
	agentTechSupport = "tech_support"
	agentBilling     = "billing"
)

func TechSupport(in *GraphState) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, ErrNoConversation
	}

	in.Conv.AppendAssistant(agentTechSupport, techSupportReply, in.Now)
	in.Conv.Status = statex.StatusCompleted
	in.Conv.FinalAction = "transferred_tech_support"
	in.Message = techSupportReply
	in.Agent = agentTechSupport
	in.Route = statex.RouteEnd
	in.Conv.Routing = in.Route
	return in, nil
}

func Billing(in *GraphState) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, ErrNoConversation
	}

	in.Conv.AppendAssistant(agentBilling, billingReply, in.Now)
	in.Conv.Status = statex.StatusCompleted
	in.Conv.FinalAction = "transferred_billing"
	in.Message = billingReply
	in.Agent = agentBilling
	in.Route = statex.RouteEnd
	in.Conv.Routing = in.Route
	return in, nil
}

// Escalate marks the conversation for human follow-up and notifies the
// escalation channel. Notification failures do not fail the turn; the
// escalated status is what matters.
func Escalate(
	ctx context.Context,
	in *GraphState,
	notifier contractx.EscalationNotifier,
	onNotifyError func(error),
) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, ErrNoConversation
	}
	conv := in.Conv

	conv.AppendAssistant(statex.AgentRetention, escalationReply, in.Now)
	conv.Status = statex.StatusEscalated
	conv.FinalAction = "escalated_to_manager"

	trigger := in.EscalationTrigger
	if trigger == "" {
		trigger = conv.Reason
	}

	if notifier != nil {
		err := notifier.Notify(ctx, contractx.Escalation{
			SessionID:  conv.SessionID,
			CustomerID: conv.CustomerID,
			Reason:     trigger,
			Utterance:  in.Text,
			At:         in.Now,
		})
		if err != nil && onNotifyError != nil {
			onNotifyError(err)
		}
	}

	in.Message = escalationReply
	in.Agent = statex.AgentRetention
	in.Route = statex.RouteEnd
	conv.Routing = in.Route
	return in, nil
}
