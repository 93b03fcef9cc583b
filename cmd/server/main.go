package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/techflow/careline/agent/agents/orchestrator"
	"github.com/techflow/careline/agent/agents/roles"
	contractx "github.com/techflow/careline/agent/contract"
	customerx "github.com/techflow/careline/agent/customer"
	llmx "github.com/techflow/careline/agent/llm"
	policyx "github.com/techflow/careline/agent/policy"
	statex "github.com/techflow/careline/agent/state"
	toolx "github.com/techflow/careline/agent/tool"
	"github.com/techflow/careline/api"
	configx "github.com/techflow/careline/pkg/config"
	escalationx "github.com/techflow/careline/pkg/escalation"
	_ "github.com/techflow/careline/pkg/logger/autoload"
	openrouterx "github.com/techflow/careline/pkg/openrouter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("llm config")
	}

	apiCfg := configx.MustNew[api.Config]("API")
	dbCfg := configx.MustNew[customerx.Config]("DATABASE")
	policyCfg := configx.MustNew[policyx.Config]("POLICY")
	escCfg := configx.MustNew[escalationx.Config]("ESCALATION")

	db, err := customerx.NewDB(*dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open customer database")
	}
	defer db.Close()
	repo := customerx.NewRepo(db)

	retriever, err := policyx.New(*policyCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load policy corpus")
	}

	tools, err := toolx.NewGateway(repo, retriever, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("build tool gateway")
	}

	// Sessions fall back to process memory when Redis is not configured.
	var store statex.Store
	if redisCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS"); err == nil {
		store, err = statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("connect session store")
		}
	} else {
		log.Warn().Msg("upstash redis not configured; sessions are in-memory only")
		store = statex.NewMemoryStore()
	}

	var notifier contractx.EscalationNotifier
	if escCfg.URL != "" {
		notifier, err = escalationx.NewWebhookNotifier(*escCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build escalation notifier")
		}
	} else {
		log.Warn().Msg("escalation webhook not configured; escalations stay in-session only")
	}

	models, err := roles.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent models")
	}

	chat, err := orchestrator.New(store, models, tools, notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	pingLLM := func(ctx context.Context) error {
		return openrouterx.Ping(ctx, llmCfg.OpenRouterFor(contractx.AgentTypeGreeter))
	}

	srv, err := api.NewServer(*apiCfg, chat, retriever, *llmCfg, *policyCfg, api.WithLLMPing(pingLLM))
	if err != nil {
		log.Fatal().Err(err).Msg("build http server")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := pingLLM(pingCtx); err != nil {
		log.Warn().Err(err).Msg("llm gateway unreachable at startup")
	}
	cancel()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", apiCfg.Port).Str("environment", apiCfg.Environment).Msg("listening")
		errCh <- srv.Listen()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("http server")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}
