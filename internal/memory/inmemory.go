package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// InMemoryStore keeps history in a map. Fast, zero setup, gone on
// restart.
type InMemoryStore struct {
	mu          sync.RWMutex
	maxMessages int
	sessions    map[string][]Message
}

func NewInMemoryStore(maxMessages int) *InMemoryStore {
	return &InMemoryStore{
		maxMessages: maxMessages,
		sessions:    make(map[string][]Message),
	}
}

func (s *InMemoryStore) Append(ctx context.Context, sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.sessions[sessionID], Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(msgs) > s.maxMessages {
		msgs = msgs[len(msgs)-s.maxMessages:]
	}
	s.sessions[sessionID] = msgs
	return nil
}

func (s *InMemoryStore) History(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *InMemoryStore) FormattedHistory(ctx context.Context, sessionID string) ([]types.ChatTurn, error) {
	msgs, err := s.History(ctx, sessionID, 0)
	if err != nil {
		return nil, err
	}
	return Turns(msgs), nil
}

func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close drops every session.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string][]Message)
	return nil
}
