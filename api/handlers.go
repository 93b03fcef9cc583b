package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/techflow/careline/agent/agents/orchestrator"
	toolx "github.com/techflow/careline/agent/tool"
)

const (
	apiVersion       = "0.1.0"
	maxMessageLength = 1000
	llmPingTimeout   = 5 * time.Second
)

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(RootResponse{
		Name:    "TechFlow Chat System",
		Version: apiVersion,
		Status:  "running",
		Endpoints: map[string]string{
			"health": "/health",
			"config": "/config",
			"chat":   "/chat",
		},
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:           "healthy",
		API:              "running",
		Policies:         "healthy",
		PolicyChunkCount: s.policies.ChunkCount(),
		LLM:              "not_tested",
	}
	if resp.PolicyChunkCount == 0 {
		resp.Status = "degraded"
		resp.Policies = "empty"
	}
	if s.llmPing != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), llmPingTimeout)
		defer cancel()
		if err := s.llmPing(ctx); err != nil {
			log.Warn().Err(err).Msg("llm health check failed")
			resp.LLM = "unhealthy"
			resp.Status = "degraded"
		} else {
			resp.LLM = "healthy"
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(ConfigResponse{
		LLMModel:    s.llmModel,
		Environment: s.cfg.Environment,
		ChunkSize:   s.policyCfg.ChunkSize,
		TopKResults: s.policyCfg.TopK,
		Tools: []string{
			toolx.ToolCustomerLookup,
			toolx.ToolOfferCalculate,
			toolx.ToolPolicySearch,
			toolx.ToolStatusUpdate,
		},
	})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "request body must be valid JSON")
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return badRequest(c, "invalid_message", "message cannot be empty")
	}
	// The limit is in characters, not bytes.
	if utf8.RuneCountInString(message) > maxMessageLength {
		return badRequest(c, "invalid_message",
			fmt.Sprintf("message exceeds %d characters", maxMessageLength))
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = s.mintSessionID()
	}

	res, err := s.chat.HandleMessage(c.UserContext(), sessionID, message)
	if err != nil {
		return s.chatError(c, sessionID, err)
	}

	return c.JSON(ChatResponse{
		Message:   res.Reply,
		SessionID: res.SessionID,
		Agent: AgentInfo{
			Name:   res.Agent,
			Action: res.FinalAction,
		},
		ConversationStatus:    string(res.Status),
		CustomerAuthenticated: res.Authenticated,
	})
}

func (s *Server) chatError(c *fiber.Ctx, sessionID string, err error) error {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidMessage), errors.Is(err, orchestrator.ErrInvalidSession):
		return badRequest(c, "invalid_request", err.Error())
	case errors.Is(err, orchestrator.ErrConversationOver):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conversation_closed",
			Message: "this conversation has already ended; start a new session",
		})
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "something went wrong handling your message",
		})
	}
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// mintSessionID produces ids like session_1748771123456_a1b2c3d4.
func (s *Server) mintSessionID() string {
	return fmt.Sprintf("session_%d_%s", s.now().UnixMilli(), s.newID())
}

func newSessionSuffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
