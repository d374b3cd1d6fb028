package messages

import (
	"context"
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/domain/message"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

type inMemoryRepository struct {
	mu       sync.RWMutex
	max      int
	sessions map[string][]*message.Message
}

// InMemoryConfig holds configuration for the in-memory repository.
type InMemoryConfig struct {
	MaxPerSession int
}

// NewInMemoryRepository creates an in-memory message repository for
// testing and local development.
func NewInMemoryRepository(cfg *InMemoryConfig) Repository {
	max := defaultMaxPerSession
	if cfg != nil && cfg.MaxPerSession > 0 {
		max = cfg.MaxPerSession
	}

	return &inMemoryRepository{
		max:      max,
		sessions: make(map[string][]*message.Message),
	}
}

func (r *inMemoryRepository) Append(_ context.Context, msg *message.Message) error {
	if msg == nil {
		return errors.InvalidArgument("message cannot be nil")
	}
	if msg.SessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *msg
	backlog := append(r.sessions[msg.SessionID], &cp)
	if len(backlog) > r.max {
		backlog = backlog[len(backlog)-r.max:]
	}
	r.sessions[msg.SessionID] = backlog
	return nil
}

func (r *inMemoryRepository) Recent(_ context.Context, sessionID string, limit int) ([]*message.Message, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	backlog := r.sessions[sessionID]
	if limit > 0 && limit < len(backlog) {
		backlog = backlog[len(backlog)-limit:]
	}

	msgs := make([]*message.Message, 0, len(backlog))
	for _, msg := range backlog {
		cp := *msg
		msgs = append(msgs, &cp)
	}
	return msgs, nil
}

func (r *inMemoryRepository) CountBySession(_ context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions[sessionID]), nil
}

func (r *inMemoryRepository) DeleteSession(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}
