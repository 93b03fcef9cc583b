package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/techflow/careline/agent/contract"
	openrouterx "github.com/techflow/careline/pkg/openrouter"
)

// Role temperature defaults. The greeter stays deterministic, retention gets
// room to phrase offers naturally, the processor sits in between.
const (
	defaultGreeterTemperature   float32 = 0.0
	defaultRetentionTemperature float32 = 0.7
	defaultProcessorTemperature float32 = 0.3
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	GreeterModel   string `envconfig:"GREETER_MODEL" split_words:"true"`
	RetentionModel string `envconfig:"RETENTION_MODEL" split_words:"true"`
	ProcessorModel string `envconfig:"PROCESSOR_MODEL" split_words:"true"`

	// Negative values fall back to the role defaults.
	GreeterTemperature   float32 `envconfig:"GREETER_TEMPERATURE" split_words:"true" default:"-1"`
	RetentionTemperature float32 `envconfig:"RETENTION_TEMPERATURE" split_words:"true" default:"-1"`
	ProcessorTemperature float32 `envconfig:"PROCESSOR_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	var temp float32

	switch agentType {
	case contractx.AgentTypeGreeter:
		temp = defaultGreeterTemperature
		if v := strings.TrimSpace(c.GreeterModel); v != "" {
			modelName = v
		}
		if c.GreeterTemperature >= 0 {
			temp = c.GreeterTemperature
		}
	case contractx.AgentTypeRetention:
		temp = defaultRetentionTemperature
		if v := strings.TrimSpace(c.RetentionModel); v != "" {
			modelName = v
		}
		if c.RetentionTemperature >= 0 {
			temp = c.RetentionTemperature
		}
	case contractx.AgentTypeProcessor:
		temp = defaultProcessorTemperature
		if v := strings.TrimSpace(c.ProcessorModel); v != "" {
			modelName = v
		}
		if c.ProcessorTemperature >= 0 {
			temp = c.ProcessorTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
