package state

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MemoryStore keeps conversation state in-process. Used by the CLI client
// and by tests; payloads round-trip through JSON so callers see the same
// serialization behavior as the Redis store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*ConversationState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	m.mu.RLock()
	payload, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}

	var st ConversationState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (m *MemoryStore) Save(_ context.Context, st *ConversationState) error {
	if st == nil {
		return ErrNilState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return ErrInvalidSession
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.sessions[st.SessionID] = payload
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
