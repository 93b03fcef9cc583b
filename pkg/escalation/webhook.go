package escalation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/techflow/careline/agent/contract"
)

// Config describes the manager-escalation webhook. When URL is empty the
// notifier is disabled and escalations are only recorded in conversation state.
type Config struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// WebhookNotifier posts escalation events to an external channel, typically a
// manager queue or an incident webhook.
type WebhookNotifier struct {
	url        string
	token      string
	httpClient *http.Client
}

var _ contractx.EscalationNotifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(cfg Config) (*WebhookNotifier, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("escalation webhook url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("escalation webhook url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		url:        strings.TrimRight(endpoint, "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (n *WebhookNotifier) WithHTTPClient(client *http.Client) *WebhookNotifier {
	if client != nil {
		n.httpClient = client
	}
	return n
}

func (n *WebhookNotifier) Notify(ctx context.Context, esc contractx.Escalation) error {
	payload, err := json.Marshal(esc)
	if err != nil {
		return fmt.Errorf("escalation: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("escalation: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("escalation: deliver event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("escalation: webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
