package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/KirkDiggler/rpg-table/internal/domain/reconnect"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

type inMemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]*reconnect.Token
	byHash map[string]string
}

// NewInMemoryRepository creates an in-memory token repository for
// testing and local development.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		tokens: make(map[string]*reconnect.Token),
		byHash: make(map[string]string),
	}
}

func copyToken(tok *reconnect.Token) *reconnect.Token {
	cp := *tok
	if tok.UsedAt != nil {
		at := *tok.UsedAt
		cp.UsedAt = &at
	}
	return &cp
}

func (r *inMemoryRepository) Create(_ context.Context, tok *reconnect.Token) error {
	if err := validateToken(tok); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[tok.ID]; ok {
		return errors.AlreadyExistsf("token with ID %s already exists", tok.ID)
	}
	if _, ok := r.byHash[tok.TokenHash]; ok {
		return errors.AlreadyExists("a token with that hash already exists")
	}

	r.tokens[tok.ID] = copyToken(tok)
	r.byHash[tok.TokenHash] = tok.ID
	return nil
}

func (r *inMemoryRepository) Get(_ context.Context, id string) (*reconnect.Token, error) {
	if id == "" {
		return nil, errors.InvalidArgument("token ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[id]
	if !ok {
		return nil, errors.NotFoundf("token not found: %s", id)
	}
	return copyToken(tok), nil
}

func (r *inMemoryRepository) GetByHash(_ context.Context, hash string) (*reconnect.Token, error) {
	if hash == "" {
		return nil, errors.InvalidArgument("token hash cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[hash]
	if !ok {
		return nil, errors.NotFound("no token matches that hash")
	}
	return copyToken(r.tokens[id]), nil
}

func (r *inMemoryRepository) Consume(_ context.Context, hash string, now time.Time) (*reconnect.Token, error) {
	if hash == "" {
		return nil, errors.InvalidArgument("token hash cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[hash]
	if !ok {
		return nil, errors.InvalidToken("token is not recognized")
	}
	tok := r.tokens[id]

	if !tok.Valid {
		return nil, errors.InvalidToken("token has been revoked")
	}
	if tok.UsedAt != nil {
		return nil, errors.InvalidToken("token has already been used")
	}
	if tok.IsExpired(now) {
		return nil, errors.InvalidToken("token has expired")
	}

	used := now
	tok.UsedAt = &used
	return copyToken(tok), nil
}

func (r *inMemoryRepository) Invalidate(_ context.Context, id string) error {
	if id == "" {
		return errors.InvalidArgument("token ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[id]
	if !ok {
		return errors.NotFoundf("token not found: %s", id)
	}
	tok.Valid = false
	return nil
}

func (r *inMemoryRepository) InvalidatePair(_ context.Context, playerID, sessionID string) (int, error) {
	if playerID == "" || sessionID == "" {
		return 0, errors.InvalidArgument("player ID and session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	revoked := 0
	for _, tok := range r.tokens {
		if tok.PlayerID != playerID || tok.SessionID != sessionID {
			continue
		}
		if !tok.Valid || tok.UsedAt != nil {
			continue
		}
		tok.Valid = false
		revoked++
	}
	return revoked, nil
}

func (r *inMemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, tok := range r.tokens {
		if !tok.IsExpired(now) {
			continue
		}
		delete(r.tokens, id)
		delete(r.byHash, tok.TokenHash)
		deleted++
	}
	return deleted, nil
}
