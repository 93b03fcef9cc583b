package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/techflow/careline/agent/contract"
)

type processorImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func newProcessor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*processorImpl, error) {
	runner, err := compileReplyGraph(ctx, chatModel, systemPrompt, "processor.reply_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile processor graph: %v", contractx.ErrModelInvoke, err)
	}
	return &processorImpl{runner: runner}, nil
}

func (p *processorImpl) Process(ctx context.Context, req contractx.ProcessorRequest) (contractx.ProcessorResponse, error) {
	if strings.TrimSpace(req.FinalAction) == "" {
		return contractx.ProcessorResponse{}, fmt.Errorf("%w: final action is required", contractx.ErrValidation)
	}
	if req.Customer == nil {
		return contractx.ProcessorResponse{}, fmt.Errorf("%w: processor requires an authenticated customer", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_message":        req.UserMessage,
		"customer":            req.Customer,
		"cancellation_reason": req.Reason,
		"final_action":        req.FinalAction,
		"selected_offer":      req.SelectedOffer,
		"tool_results":        req.ToolResults,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.ProcessorResponse{}, fmt.Errorf("%w: marshal processor payload: %v", contractx.ErrValidation, err)
	}

	msg, err := p.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.ProcessorResponse{}, fmt.Errorf("%w: processor invoke: %v", contractx.ErrModelInvoke, err)
	}

	message := ""
	if msg != nil {
		message = strings.TrimSpace(msg.Content)
	}
	if message == "" {
		return contractx.ProcessorResponse{}, fmt.Errorf("%w: processor reply is empty", contractx.ErrSchemaViolation)
	}

	return contractx.ProcessorResponse{Message: message}, nil
}
