package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/techflow/careline/agent/agents/orchestrator"
	"github.com/techflow/careline/agent/llm"
	"github.com/techflow/careline/agent/policy"
	"github.com/techflow/careline/agent/state"
)

type fakeChat struct {
	result orchestrator.Result
	err    error

	lastSessionID string
	lastText      string
	calls         int
}

func (f *fakeChat) HandleMessage(_ context.Context, sessionID string, text string) (orchestrator.Result, error) {
	f.calls++
	f.lastSessionID = sessionID
	f.lastText = text
	if f.err != nil {
		return orchestrator.Result{}, f.err
	}
	res := f.result
	if res.SessionID == "" {
		res.SessionID = sessionID
	}
	return res, nil
}

type fakePolicies struct {
	chunks int
}

func (f *fakePolicies) ChunkCount() int { return f.chunks }

func newTestServer(t *testing.T, chat *fakeChat, policies *fakePolicies, opts ...ServerOption) *Server {
	t.Helper()
	if policies == nil {
		policies = &fakePolicies{chunks: 12}
	}
	srv, err := NewServer(
		Config{Environment: "test"},
		chat,
		policies,
		llm.Config{Model: "openai/gpt-4o-mini"},
		policy.Config{ChunkSize: 500, TopK: 3},
		opts...,
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.now = func() time.Time { return time.UnixMilli(1700000000000) }
	srv.newID = func() string { return "abcd1234" }
	return srv
}

func postChat(t *testing.T, srv *Server, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return out
}

func TestChatMintsSessionIDWhenAbsent(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{result: orchestrator.Result{
		Reply:  "Hi! Could you share the email on your account?",
		Agent:  "greeter",
		Status: state.StatusActive,
	}}
	srv := newTestServer(t, chat, nil)

	resp := postChat(t, srv, `{"message": "hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	want := "session_1700000000000_abcd1234"
	if chat.lastSessionID != want {
		t.Fatalf("minted session id = %q, want %q", chat.lastSessionID, want)
	}
	body := decodeBody[ChatResponse](t, resp)
	if body.SessionID != want {
		t.Fatalf("response session id = %q, want %q", body.SessionID, want)
	}
}

func TestChatKeepsProvidedSessionID(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{result: orchestrator.Result{
		Reply:  "Welcome back!",
		Agent:  "greeter",
		Status: state.StatusActive,
	}}
	srv := newTestServer(t, chat, nil)

	resp := postChat(t, srv, `{"message": "hello again", "session_id": "session_1_deadbeef"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if chat.lastSessionID != "session_1_deadbeef" {
		t.Fatalf("session id = %q, want provided one", chat.lastSessionID)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{}
	srv := newTestServer(t, chat, nil)

	resp := postChat(t, srv, `{"message": "   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if chat.calls != 0 {
		t.Fatalf("chat service called %d times, want 0", chat.calls)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if body.Error != "invalid_message" {
		t.Fatalf("error code = %q, want invalid_message", body.Error)
	}
}

func TestChatRejectsOverlongMessage(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{}
	srv := newTestServer(t, chat, nil)

	long := strings.Repeat("a", maxMessageLength+1)
	resp := postChat(t, srv, `{"message": "`+long+`"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if chat.calls != 0 {
		t.Fatalf("chat service called %d times, want 0", chat.calls)
	}
}

func TestChatMessageLimitCountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{result: orchestrator.Result{
		Reply:  "Hello!",
		Agent:  "greeter",
		Status: state.StatusActive,
	}}
	srv := newTestServer(t, chat, nil)

	// 600 two-byte runes: 1200 bytes but only 600 characters.
	resp := postChat(t, srv, `{"message": "`+strings.Repeat("é", 600)+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if chat.calls != 1 {
		t.Fatalf("chat service called %d times, want 1", chat.calls)
	}

	resp = postChat(t, srv, `{"message": "`+strings.Repeat("é", maxMessageLength+1)+`"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestChatMapsResultFields(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{result: orchestrator.Result{
		SessionID:     "session_1_deadbeef",
		Reply:         "Your 20% discount is applied.",
		Agent:         "processor",
		FinalAction:   "accepted_discount",
		Status:        state.StatusCompleted,
		Authenticated: true,
	}}
	srv := newTestServer(t, chat, nil)

	resp := postChat(t, srv, `{"message": "yes please", "session_id": "session_1_deadbeef"}`)
	body := decodeBody[ChatResponse](t, resp)

	if body.Message != "Your 20% discount is applied." {
		t.Fatalf("message = %q", body.Message)
	}
	if body.Agent.Name != "processor" || body.Agent.Action != "accepted_discount" {
		t.Fatalf("agent = %+v, want processor/accepted_discount", body.Agent)
	}
	if body.ConversationStatus != "completed" {
		t.Fatalf("conversation_status = %q, want completed", body.ConversationStatus)
	}
	if !body.CustomerAuthenticated {
		t.Fatal("customer_authenticated = false, want true")
	}
}

func TestChatClosedConversationConflicts(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{err: orchestrator.ErrConversationOver}
	srv := newTestServer(t, chat, nil)

	resp := postChat(t, srv, `{"message": "one more thing", "session_id": "session_1_deadbeef"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if body.Error != "conversation_closed" {
		t.Fatalf("error code = %q, want conversation_closed", body.Error)
	}
}

func TestChatInternalErrorHidesDetail(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{err: context.DeadlineExceeded}
	srv := newTestServer(t, chat, nil)

	resp := postChat(t, srv, `{"message": "hello", "session_id": "session_1_deadbeef"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if strings.Contains(body.Message, "deadline") {
		t.Fatalf("internal detail leaked: %q", body.Message)
	}
}

func TestHealthReportsChunkCount(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, &fakePolicies{chunks: 42})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody[HealthResponse](t, resp)
	if body.Status != "healthy" || body.PolicyChunkCount != 42 {
		t.Fatalf("health = %+v, want healthy with 42 chunks", body)
	}
}

func TestHealthDegradedWithoutPolicies(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, &fakePolicies{chunks: 0})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody[HealthResponse](t, resp)
	if body.Status != "degraded" || body.Policies != "empty" {
		t.Fatalf("health = %+v, want degraded/empty", body)
	}
}

func TestHealthReportsLLMStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, nil, WithLLMPing(func(ctx context.Context) error {
		return nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody[HealthResponse](t, resp)
	if body.LLM != "healthy" || body.Status != "healthy" {
		t.Fatalf("health = %+v, want healthy llm", body)
	}
}

func TestHealthDegradedWhenLLMUnreachable(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, nil, WithLLMPing(func(ctx context.Context) error {
		return errors.New("gateway timeout")
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody[HealthResponse](t, resp)
	if body.LLM != "unhealthy" || body.Status != "degraded" {
		t.Fatalf("health = %+v, want degraded with unhealthy llm", body)
	}
}

func TestConfigEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody[ConfigResponse](t, resp)
	if body.LLMModel != "openai/gpt-4o-mini" {
		t.Fatalf("llm_model = %q", body.LLMModel)
	}
	if body.Environment != "test" || body.ChunkSize != 500 || body.TopKResults != 3 {
		t.Fatalf("config = %+v", body)
	}
}

func TestRootListsEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeChat{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := decodeBody[RootResponse](t, resp)
	if body.Endpoints["chat"] != "/chat" {
		t.Fatalf("endpoints = %v, want chat -> /chat", body.Endpoints)
	}
}
