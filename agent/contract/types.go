package contract

import (
	"time"

	"github.com/techflow/careline/agent/customer"
	"github.com/techflow/careline/agent/offer"
	statex "github.com/techflow/careline/agent/state"
)

type AgentType string

const (
	AgentTypeGreeter   AgentType = "greeter"
	AgentTypeRetention AgentType = "retention"
	AgentTypeProcessor AgentType = "processor"
)

// GreeterRequest carries everything the greeter needs to produce a reply:
// the raw utterance plus whatever identity the conversation has resolved.
type GreeterRequest struct {
	UserMessage string             `json:"user_message"`
	Customer    *customer.Customer `json:"customer,omitempty"`
	Intent      statex.Intent      `json:"intent,omitempty"`
	Transcript  string             `json:"transcript,omitempty"`
	Now         time.Time          `json:"now"`
}

type GreeterResponse struct {
	Message string `json:"message"`
}

// RetentionRequest is built once a cancellation intent is confirmed for an
// authenticated customer.
type RetentionRequest struct {
	UserMessage   string             `json:"user_message"`
	Customer      *customer.Customer `json:"customer"`
	Reason        string             `json:"cancellation_reason"`
	Offers        offer.Result       `json:"offers"`
	PolicyContext string             `json:"policy_context,omitempty"`
	Transcript    string             `json:"transcript,omitempty"`
}

type RetentionResponse struct {
	Message string `json:"message"`
}

// ProcessorRequest finalizes a conversation after the customer accepted or
// declined a retention offer.
type ProcessorRequest struct {
	UserMessage   string             `json:"user_message"`
	Customer      *customer.Customer `json:"customer"`
	Reason        string             `json:"cancellation_reason"`
	FinalAction   string             `json:"final_action"`
	SelectedOffer *offer.Offer       `json:"selected_offer,omitempty"`
	ToolResults   []ToolResult       `json:"tool_results,omitempty"`
}

type ProcessorResponse struct {
	Message string `json:"message"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Escalation describes a conversation handed off to a human supervisor.
type Escalation struct {
	SessionID  string    `json:"session_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	Reason     string    `json:"reason"`
	Utterance  string    `json:"utterance"`
	At         time.Time `json:"at"`
}
