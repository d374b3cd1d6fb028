package sessions

import (
	"context"
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/domain/game"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage.
type inMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

// NewInMemoryRepository creates a new in-memory session repository.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		sessions: make(map[string]*game.Session),
	}
}

func (r *inMemoryRepository) Create(ctx context.Context, sess *game.Session) error {
	if sess == nil {
		return errors.InvalidArgument("session cannot be nil")
	}
	if sess.ID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sess.ID]; exists {
		return errors.AlreadyExistsf("session with ID %s already exists", sess.ID)
	}

	r.sessions[sess.ID] = copySession(sess)
	return nil
}

func (r *inMemoryRepository) Get(ctx context.Context, id string) (*game.Session, error) {
	if id == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, exists := r.sessions[id]
	if !exists {
		return nil, errors.NotFoundf("session not found: %s", id)
	}
	return copySession(sess), nil
}

func (r *inMemoryRepository) Update(ctx context.Context, sess *game.Session) error {
	if sess == nil {
		return errors.InvalidArgument("session cannot be nil")
	}
	if sess.ID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sess.ID]; !exists {
		return errors.NotFoundf("session not found: %s", sess.ID)
	}

	r.sessions[sess.ID] = copySession(sess)
	return nil
}

func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists {
		return errors.NotFoundf("session not found: %s", id)
	}

	delete(r.sessions, id)
	return nil
}

func (r *inMemoryRepository) ListByPlayer(ctx context.Context, playerID string) ([]*game.Session, error) {
	if playerID == "" {
		return nil, errors.InvalidArgument("player ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*game.Session
	for _, sess := range r.sessions {
		if sess.GetMember(playerID) != nil {
			out = append(out, copySession(sess))
		}
	}
	return out, nil
}

func (r *inMemoryRepository) ListActive(ctx context.Context) ([]*game.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*game.Session{}
	for _, sess := range r.sessions {
		if sess.IsActive() {
			out = append(out, copySession(sess))
		}
	}
	return out, nil
}

// copySession clones a session so callers never share the stored
// members map.
func copySession(sess *game.Session) *game.Session {
	out := *sess
	out.Members = make(map[string]*game.SessionMember, len(sess.Members))
	for id, m := range sess.Members {
		member := *m
		out.Members[id] = &member
	}
	return &out
}
