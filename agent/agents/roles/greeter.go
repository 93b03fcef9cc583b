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

type greeterImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func newGreeter(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*greeterImpl, error) {
	runner, err := compileReplyGraph(ctx, chatModel, systemPrompt, "greeter.reply_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile greeter graph: %v", contractx.ErrModelInvoke, err)
	}
	return &greeterImpl{runner: runner}, nil
}

func (g *greeterImpl) Greet(ctx context.Context, req contractx.GreeterRequest) (contractx.GreeterResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.GreeterResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_message": req.UserMessage,
		"customer":     req.Customer,
		"intent":       req.Intent,
		"transcript":   req.Transcript,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.GreeterResponse{}, fmt.Errorf("%w: marshal greeter payload: %v", contractx.ErrValidation, err)
	}

	msg, err := g.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.GreeterResponse{}, fmt.Errorf("%w: greeter invoke: %v", contractx.ErrModelInvoke, err)
	}

	message := ""
	if msg != nil {
		message = strings.TrimSpace(msg.Content)
	}
	if message == "" {
		return contractx.GreeterResponse{}, fmt.Errorf("%w: greeter reply is empty", contractx.ErrSchemaViolation)
	}

	return contractx.GreeterResponse{Message: message}, nil
}
