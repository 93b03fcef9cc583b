package contract

import "context"

type Greeter interface {
	Greet(ctx context.Context, req GreeterRequest) (GreeterResponse, error)
}

type Retention interface {
	Retain(ctx context.Context, req RetentionRequest) (RetentionResponse, error)
}

type Processor interface {
	Process(ctx context.Context, req ProcessorRequest) (ProcessorResponse, error)
}

type Registry interface {
	Greeter() Greeter
	Retention() Retention
	Processor() Processor
}

type ToolGateway interface {
	Execute(ctx context.Context, agentType string, reqs []ToolRequest) ([]ToolResult, error)
}

// EscalationNotifier forwards a conversation to a human channel. Delivery is
// best-effort: the conversation is marked escalated regardless.
type EscalationNotifier interface {
	Notify(ctx context.Context, esc Escalation) error
}
