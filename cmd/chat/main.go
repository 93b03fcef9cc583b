// Command chat is a local REPL against the retention pipeline. It keeps
// session state in memory and resolves customers from a CSV fixture, so it
// needs no database or Redis to run.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/techflow/careline/agent/agents/orchestrator"
	"github.com/techflow/careline/agent/agents/roles"
	customerx "github.com/techflow/careline/agent/customer"
	llmx "github.com/techflow/careline/agent/llm"
	policyx "github.com/techflow/careline/agent/policy"
	statex "github.com/techflow/careline/agent/state"
	toolx "github.com/techflow/careline/agent/tool"
	configx "github.com/techflow/careline/pkg/config"
	_ "github.com/techflow/careline/pkg/logger/autoload"
)

// csvDirectory serves customer lookups from a CSV fixture and logs outcome
// events instead of persisting them.
type csvDirectory struct {
	byEmail map[string]customerx.Customer
}

func newCSVDirectory(path string) (*csvDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open customer fixture: %w", err)
	}
	defer f.Close()

	customers, err := customerx.LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse customer fixture: %w", err)
	}

	byEmail := make(map[string]customerx.Customer, len(customers))
	for _, c := range customers {
		byEmail[strings.ToLower(c.Email)] = c
	}
	return &csvDirectory{byEmail: byEmail}, nil
}

func (d *csvDirectory) LookupByEmail(_ context.Context, email string) (*customerx.Customer, error) {
	c, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, customerx.ErrNotFound
	}
	return &c, nil
}

func (d *csvDirectory) RecordEvent(_ context.Context, ev *customerx.RetentionEvent) error {
	log.Info().
		Str("customer_id", ev.CustomerID).
		Str("action", ev.Action).
		Str("details", ev.Details).
		Msg("retention outcome")
	return nil
}

func main() {
	customersPath := os.Getenv("CUSTOMERS_PATH")
	if customersPath == "" {
		customersPath = "data/customers.csv"
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("llm config")
	}
	policyCfg := configx.MustNew[policyx.Config]("POLICY")

	directory, err := newCSVDirectory(customersPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load customers")
	}

	retriever, err := policyx.New(*policyCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load policy corpus")
	}

	tools, err := toolx.NewGateway(directory, retriever, directory)
	if err != nil {
		log.Fatal().Err(err).Msg("build tool gateway")
	}

	ctx := context.Background()
	models, err := roles.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent models")
	}

	chat, err := orchestrator.New(statex.NewMemoryStore(), models, tools, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	sessionID := fmt.Sprintf("session_%d_%s",
		time.Now().UnixMilli(),
		strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	fmt.Println("TechFlow retention chat. Type your message, or 'exit' to leave.")
	fmt.Printf("session: %s\n\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		switch strings.ToLower(text) {
		case "exit", "quit", "/exit", "/quit":
			fmt.Println("goodbye")
			return
		}

		res, err := chat.HandleMessage(ctx, sessionID, text)
		if err != nil {
			if errors.Is(err, orchestrator.ErrConversationOver) {
				fmt.Println("conversation is closed; restart to begin a new one")
				break
			}
			log.Error().Err(err).Msg("turn failed")
			continue
		}

		fmt.Printf("[%s]: %s\n", res.Agent, res.Reply)
		if res.FinalAction != "" {
			fmt.Printf("(outcome: %s, status: %s)\n", res.FinalAction, res.Status)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read input")
	}
}
