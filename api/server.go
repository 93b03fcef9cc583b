package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/techflow/careline/agent/agents/orchestrator"
	"github.com/techflow/careline/agent/llm"
	"github.com/techflow/careline/agent/policy"
)

const serviceName = "careline"

// ChatService runs one conversation turn. Satisfied by
// *orchestrator.Orchestrator.
type ChatService interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (orchestrator.Result, error)
}

// PolicyStatus exposes the loaded policy corpus size for health reporting.
// Satisfied by *policy.Retriever.
type PolicyStatus interface {
	ChunkCount() int
}

type ServerOption func(*Server)

// WithLLMPing wires a connectivity check reported by GET /health.
func WithLLMPing(ping func(ctx context.Context) error) ServerOption {
	return func(s *Server) {
		s.llmPing = ping
	}
}

type Config struct {
	Port         int           `envconfig:"PORT" split_words:"true" default:"8000"`
	Environment  string        `envconfig:"ENVIRONMENT" split_words:"true" default:"development"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"60s"`
}

type Server struct {
	app      *fiber.App
	cfg      Config
	chat     ChatService
	policies PolicyStatus

	llmModel  string
	policyCfg policy.Config
	llmPing   func(ctx context.Context) error

	now   func() time.Time
	newID func() string
}

func NewServer(cfg Config, chat ChatService, policies PolicyStatus, llmCfg llm.Config, policyCfg policy.Config, opts ...ServerOption) (*Server, error) {
	if chat == nil {
		return nil, errors.New("chat service is required")
	}
	if policies == nil {
		return nil, errors.New("policy status is required")
	}

	s := &Server{
		cfg:       cfg,
		chat:      chat,
		policies:  policies,
		llmModel:  llmCfg.Model,
		policyCfg: policyCfg,
		now:       time.Now,
		newID:     newSessionSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)
	app.Get("/config", s.handleConfig)
	app.Post("/chat", s.handleChat)

	s.app = app
	return s, nil
}

func (s *Server) Listen() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.cfg.Port))
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
