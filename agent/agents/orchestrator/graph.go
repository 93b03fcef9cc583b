package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/techflow/careline/agent/nodes"
	statex "github.com/techflow/careline/agent/state"
)

// Turn graph:
//
//	START -> validate_request -> load_state -> greet
//	greet    -> {retain | tech_support | billing | save_state}
//	retain   -> {process | escalate | save_state}
//	process, tech_support, billing, escalate -> save_state
//	save_state -> finalize_reply -> END
func (o *Orchestrator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadState(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_state: %w", err)
	}

	if err := graph.AddLambdaNode("greet",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Greet(ctx, in, o.models, o.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node greet: %w", err)
	}

	if err := graph.AddLambdaNode("retain",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Retain(ctx, in, o.models, o.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retain: %w", err)
	}

	if err := graph.AddLambdaNode("process",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Process(ctx, in, o.models, o.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node process: %w", err)
	}

	if err := graph.AddLambdaNode("tech_support",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.TechSupport(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node tech_support: %w", err)
	}

	if err := graph.AddLambdaNode("billing",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Billing(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node billing: %w", err)
	}

	if err := graph.AddLambdaNode("escalate",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Escalate(ctx, in, o.notifier, o.onNotifyError)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node escalate: %w", err)
	}

	if err := graph.AddLambdaNode("save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveState(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	greeterBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", nodex.ErrNoConversation
			}
			switch in.Route {
			case statex.RouteRetention:
				return "retain", nil
			case statex.RouteTechSupport:
				return "tech_support", nil
			case statex.RouteBilling:
				return "billing", nil
			default:
				return "save_state", nil
			}
		},
		map[string]bool{
			"retain":       true,
			"tech_support": true,
			"billing":      true,
			"save_state":   true,
		},
	)
	if err := graph.AddBranch("greet", greeterBranch); err != nil {
		return nil, fmt.Errorf("add greeter branch: %w", err)
	}

	retentionBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", nodex.ErrNoConversation
			}
			switch in.Route {
			case statex.RouteProcessor:
				return "process", nil
			case statex.RouteEscalate:
				return "escalate", nil
			default:
				return "save_state", nil
			}
		},
		map[string]bool{
			"process":    true,
			"escalate":   true,
			"save_state": true,
		},
	)
	if err := graph.AddBranch("retain", retentionBranch); err != nil {
		return nil, fmt.Errorf("add retention branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_state"},
		{"load_state", "greet"},
		{"process", "save_state"},
		{"tech_support", "save_state"},
		{"billing", "save_state"},
		{"escalate", "save_state"},
		{"save_state", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
