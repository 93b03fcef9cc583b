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
	"github.com/techflow/careline/agent/offer"
)

type retentionImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func newRetention(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*retentionImpl, error) {
	runner, err := compileReplyGraph(ctx, chatModel, systemPrompt, "retention.reply_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile retention graph: %v", contractx.ErrModelInvoke, err)
	}
	return &retentionImpl{runner: runner}, nil
}

func (r *retentionImpl) Retain(ctx context.Context, req contractx.RetentionRequest) (contractx.RetentionResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.RetentionResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}
	if req.Customer == nil {
		return contractx.RetentionResponse{}, fmt.Errorf("%w: retention requires an authenticated customer", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_message":        req.UserMessage,
		"customer":            req.Customer,
		"cancellation_reason": req.Reason,
		"offers":              req.Offers,
		"offers_text":         offer.Describe(req.Offers.Offers),
		"policy_context":      req.PolicyContext,
		"transcript":          req.Transcript,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.RetentionResponse{}, fmt.Errorf("%w: marshal retention payload: %v", contractx.ErrValidation, err)
	}

	msg, err := r.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.RetentionResponse{}, fmt.Errorf("%w: retention invoke: %v", contractx.ErrModelInvoke, err)
	}

	message := ""
	if msg != nil {
		message = strings.TrimSpace(msg.Content)
	}
	if message == "" {
		return contractx.RetentionResponse{}, fmt.Errorf("%w: retention reply is empty", contractx.ErrSchemaViolation)
	}

	return contractx.RetentionResponse{Message: message}, nil
}
