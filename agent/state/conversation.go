package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/techflow/careline/agent/customer"
	"github.com/techflow/careline/agent/offer"
)

// Intent is the classified purpose of the conversation.
type Intent string

const (
	IntentUnknown      Intent = ""
	IntentCancellation Intent = "cancellation"
	IntentTechnical    Intent = "technical"
	IntentBilling      Intent = "billing"
	IntentGeneral      Intent = "general"
)

// Routing is the decision of where the current turn goes next.
type Routing string

const (
	RouteRetention   Routing = "retention"
	RouteTechSupport Routing = "tech_support"
	RouteBilling     Routing = "billing"
	RouteProcessor   Routing = "processor"
	RouteEscalate    Routing = "escalate"
	RouteEnd         Routing = "end"
)

// Status is the lifecycle of a conversation.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusEscalated Status = "escalated"
)

// Agent names as surfaced to the API client.
const (
	AgentGreeter   = "greeter"
	AgentRetention = "retention"
	AgentProcessor = "processor"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role      `json:"role"`
	Agent   string    `json:"agent,omitempty"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ConversationState is the persistent per-session record flowing through the
// agent graph. Every field beyond SessionID starts empty and is filled as
// the conversation progresses.
type ConversationState struct {
	SessionID string `json:"session_id"`

	Messages []Message `json:"messages,omitempty"`

	CustomerEmail string             `json:"customer_email,omitempty"`
	CustomerID    string             `json:"customer_id,omitempty"`
	Customer      *customer.Customer `json:"customer,omitempty"`

	Intent Intent `json:"intent,omitempty"`
	Reason string `json:"reason,omitempty"`

	Offers        []offer.Offer `json:"retention_offers,omitempty"`
	SelectedOffer *offer.Offer  `json:"selected_offer,omitempty"`

	FinalAction   string `json:"final_action,omitempty"`
	PolicyContext string `json:"policy_context,omitempty"`

	CurrentAgent string  `json:"current_agent"`
	Routing      Routing `json:"routing_decision,omitempty"`
	Status       Status  `json:"status"`

	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidStatus = errors.New("invalid conversation status")
	ErrInvalidIntent = errors.New("invalid intent")
)

func NewConversationState(sessionID string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID:    sessionID,
		CurrentAgent: AgentGreeter,
		Status:       StatusActive,
		UpdatedAt:    now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *ConversationState) AppendUser(content string, now time.Time) {
	s.Messages = append(s.Messages, Message{
		Role:    RoleUser,
		Content: content,
		At:      now.UTC(),
	})
}

func (s *ConversationState) AppendAssistant(agent, content string, now time.Time) {
	s.Messages = append(s.Messages, Message{
		Role:    RoleAssistant,
		Agent:   agent,
		Content: content,
		At:      now.UTC(),
	})
	s.CurrentAgent = agent
}

// LastUserMessage returns the most recent user utterance, or "".
func (s *ConversationState) LastUserMessage() string {
	if s == nil {
		return ""
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantMessage returns the most recent agent reply, or "".
func (s *ConversationState) LastAssistantMessage() string {
	if s == nil {
		return ""
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// UserTranscript joins the last n user messages, oldest first. n <= 0 means
// all of them.
func (s *ConversationState) UserTranscript(n int) string {
	if s == nil {
		return ""
	}
	var parts []string
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			parts = append(parts, m.Content)
		}
	}
	if n > 0 && len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	return strings.Join(parts, " ")
}

func (s *ConversationState) IsAuthenticated() bool {
	return s != nil && s.Customer != nil
}

func (s *ConversationState) HasIntent() bool {
	return s != nil && s.Intent != IntentUnknown
}

func (s *ConversationState) IsTerminal() bool {
	return s != nil && s.Status != StatusActive
}

func (s *ConversationState) Validate() error {
	if s == nil {
		return errors.New("nil conversation state")
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}

	switch s.Status {
	case StatusActive, StatusCompleted, StatusEscalated:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
	}

	switch s.Intent {
	case IntentUnknown, IntentCancellation, IntentTechnical, IntentBilling, IntentGeneral:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidIntent, s.Intent)
	}

	if len(s.Offers) > 0 && s.Customer == nil {
		return errors.New("offers present without an authenticated customer")
	}
	if s.Status == StatusCompleted && s.FinalAction == "" {
		return errors.New("completed conversation must record a final action")
	}
	return nil
}
