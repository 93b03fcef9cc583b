package roles

import (
	"context"
	"fmt"

	contractx "github.com/techflow/careline/agent/contract"
	llmx "github.com/techflow/careline/agent/llm"
	promptx "github.com/techflow/careline/agent/prompt"
)

type registryImpl struct {
	greeter   contractx.Greeter
	retention contractx.Retention
	processor contractx.Processor
}

func (r *registryImpl) Greeter() contractx.Greeter {
	return r.greeter
}

func (r *registryImpl) Retention() contractx.Retention {
	return r.retention
}

func (r *registryImpl) Processor() contractx.Processor {
	return r.processor
}

func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	greeterModelCfg := cfg.OpenRouterFor(contractx.AgentTypeGreeter)
	greeterModel, err := greeterModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create greeter model: %v", contractx.ErrModelInvoke, err)
	}
	retentionModelCfg := cfg.OpenRouterFor(contractx.AgentTypeRetention)
	retentionModel, err := retentionModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create retention model: %v", contractx.ErrModelInvoke, err)
	}
	processorModelCfg := cfg.OpenRouterFor(contractx.AgentTypeProcessor)
	processorModel, err := processorModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create processor model: %v", contractx.ErrModelInvoke, err)
	}

	greeter, err := newGreeter(ctx, greeterModel, prompts.Greeter)
	if err != nil {
		return nil, err
	}
	retention, err := newRetention(ctx, retentionModel, prompts.Retention)
	if err != nil {
		return nil, err
	}
	processor, err := newProcessor(ctx, processorModel, prompts.Processor)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		greeter:   greeter,
		retention: retention,
		processor: processor,
	}, nil
}
