package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/techflow/careline/agent/contract"
	"github.com/techflow/careline/agent/customer"
	"github.com/techflow/careline/agent/offer"
)

const (
	ToolCustomerLookup = "customer.lookup"
	ToolOfferCalculate = "offer.calculate"
	ToolPolicySearch   = "policy.search"
	ToolStatusUpdate   = "status.update"
)

// CustomerDirectory resolves customers by email. Satisfied by *customer.Repo.
type CustomerDirectory interface {
	LookupByEmail(ctx context.Context, email string) (*customer.Customer, error)
}

// PolicySearcher answers free-text policy questions. Satisfied by
// *policy.Retriever.
type PolicySearcher interface {
	Query(query string) string
}

// StatusRecorder appends retention outcomes to the audit trail. Satisfied by
// *customer.Repo.
type StatusRecorder interface {
	RecordEvent(ctx context.Context, ev *customer.RetentionEvent) error
}

type CustomerLookupOutput struct {
	Customer *customer.Customer `json:"customer"`
}

type OfferCalculateOutput struct {
	Offers offer.Result `json:"offers"`
}

type PolicySearchOutput struct {
	Context string `json:"context"`
}

type StatusUpdateOutput struct {
	CustomerID string `json:"customer_id"`
	Action     string `json:"action"`
	RecordedAt string `json:"recorded_at"`
}

// Gateway executes tool requests on behalf of the agent graph. Domain
// failures (unknown customer, missing args) come back in ToolResult.Error so
// the calling agent can phrase them to the user; infrastructure failures are
// returned as errors.
type Gateway struct {
	directory CustomerDirectory
	policies  PolicySearcher
	recorder  StatusRecorder
	now       func() time.Time
}

func NewGateway(directory CustomerDirectory, policies PolicySearcher, recorder StatusRecorder) (*Gateway, error) {
	if directory == nil {
		return nil, errors.New("customer directory is required")
	}
	if policies == nil {
		return nil, errors.New("policy searcher is required")
	}
	if recorder == nil {
		return nil, errors.New("status recorder is required")
	}
	return &Gateway{
		directory: directory,
		policies:  policies,
		recorder:  recorder,
		now:       time.Now,
	}, nil
}

func (g *Gateway) Execute(ctx context.Context, agentType string, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	results := make([]contractx.ToolResult, 0, len(reqs))
	allowed := toolsForAgent(contractx.AgentType(agentType))

	for _, req := range reqs {
		if !allowed[req.Tool] {
			results = append(results, contractx.ToolResult{
				Tool:  req.Tool,
				Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", req.Tool, agentType),
			})
			continue
		}

		res, err := g.dispatch(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", req.Tool, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (g *Gateway) dispatch(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	switch req.Tool {
	case ToolCustomerLookup:
		return g.customerLookup(ctx, req)
	case ToolOfferCalculate:
		return g.offerCalculate(req)
	case ToolPolicySearch:
		return g.policySearch(req)
	case ToolStatusUpdate:
		return g.statusUpdate(ctx, req)
	default:
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("unknown tool %s", req.Tool),
		}, nil
	}
}

func (g *Gateway) customerLookup(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	email := strings.TrimSpace(stringArg(req.Args, "email"))
	if email == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "email argument is required"}, nil
	}

	cust, err := g.directory.LookupByEmail(ctx, email)
	if errors.Is(err, customer.ErrNotFound) || errors.Is(err, customer.ErrInvalidEmail) {
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("no account found for %s", email),
		}, nil
	}
	if err != nil {
		return contractx.ToolResult{}, err
	}

	return contractx.ToolResult{
		Tool:   req.Tool,
		Result: CustomerLookupOutput{Customer: cust},
	}, nil
}

func (g *Gateway) offerCalculate(req contractx.ToolRequest) (contractx.ToolResult, error) {
	tier := stringArg(req.Args, "tier")
	reason := stringArg(req.Args, "reason")
	if strings.TrimSpace(tier) == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "tier argument is required"}, nil
	}

	return contractx.ToolResult{
		Tool:   req.Tool,
		Result: OfferCalculateOutput{Offers: offer.Calculate(tier, reason)},
	}, nil
}

func (g *Gateway) policySearch(req contractx.ToolRequest) (contractx.ToolResult, error) {
	query := strings.TrimSpace(stringArg(req.Args, "query"))
	if query == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "query argument is required"}, nil
	}

	return contractx.ToolResult{
		Tool:   req.Tool,
		Result: PolicySearchOutput{Context: g.policies.Query(query)},
	}, nil
}

func (g *Gateway) statusUpdate(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	customerID := strings.TrimSpace(stringArg(req.Args, "customer_id"))
	action := strings.TrimSpace(stringArg(req.Args, "action"))
	if customerID == "" || action == "" {
		return contractx.ToolResult{Tool: req.Tool, Error: "customer_id and action arguments are required"}, nil
	}

	now := g.now().UTC()
	ev := &customer.RetentionEvent{
		CustomerID: customerID,
		Action:     action,
		Details:    stringArg(req.Args, "details"),
		CreatedAt:  now,
	}
	if err := g.recorder.RecordEvent(ctx, ev); err != nil {
		return contractx.ToolResult{}, err
	}

	return contractx.ToolResult{
		Tool: req.Tool,
		Result: StatusUpdateOutput{
			CustomerID: customerID,
			Action:     action,
			RecordedAt: now.Format(time.RFC3339),
		},
	}, nil
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	v, ok := args[key].(string)
	if !ok {
		return ""
	}
	return v
}

// InfosForAgent lists the tools a given agent may call, in the form the
// chat model binding expects.
func InfosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeGreeter:
		return []*schema.ToolInfo{
			customerLookupInfo(),
			policySearchInfo(),
		}
	case contractx.AgentTypeRetention:
		return []*schema.ToolInfo{
			offerCalculateInfo(),
			policySearchInfo(),
		}
	case contractx.AgentTypeProcessor:
		return []*schema.ToolInfo{
			statusUpdateInfo(),
		}
	default:
		return nil
	}
}

func toolsForAgent(agentType contractx.AgentType) map[string]bool {
	allowed := make(map[string]bool)
	for _, info := range InfosForAgent(agentType) {
		allowed[info.Name] = true
	}
	return allowed
}

func customerLookupInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolCustomerLookup,
		Desc: "Look up a customer account by email address.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"email": {Type: schema.String, Desc: "Customer email address", Required: true},
		}),
	}
}

func offerCalculateInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolOfferCalculate,
		Desc: "Calculate retention offers for a customer tier and cancellation reason.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"tier":   {Type: schema.String, Desc: "Customer tier: new, regular, or premium", Required: true},
			"reason": {Type: schema.String, Desc: "Cancellation reason", Required: false},
		}),
	}
}

func policySearchInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolPolicySearch,
		Desc: "Search company policy documents and return relevant excerpts.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "Policy question", Required: true},
		}),
	}
}

func statusUpdateInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolStatusUpdate,
		Desc: "Record the final outcome of a retention conversation.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.String, Desc: "Customer identifier", Required: true},
			"action":      {Type: schema.String, Desc: "Outcome action, e.g. cancelled or accepted_discount", Required: true},
			"details":     {Type: schema.String, Desc: "Free-form detail about the outcome", Required: false},
		}),
	}
}
