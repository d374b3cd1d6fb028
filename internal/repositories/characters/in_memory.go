package characters

import (
	"context"
	"sync"

	"github.com/KirkDiggler/rpg-table/internal/domain/character"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage.
type inMemoryRepository struct {
	mu         sync.RWMutex
	characters map[string]*character.Character
}

// NewInMemoryRepository creates a new in-memory character repository.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		characters: make(map[string]*character.Character),
	}
}

func (r *inMemoryRepository) Create(ctx context.Context, char *character.Character) error {
	if err := char.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.characters[char.ID]; exists {
		return errors.AlreadyExistsf("character with ID %s already exists", char.ID)
	}

	charCopy := *char
	r.characters[char.ID] = &charCopy
	return nil
}

func (r *inMemoryRepository) Get(ctx context.Context, id string) (*character.Character, error) {
	if id == "" {
		return nil, errors.InvalidArgument("character ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	char, exists := r.characters[id]
	if !exists {
		return nil, errors.NotFoundf("character not found: %s", id)
	}

	charCopy := *char
	return &charCopy, nil
}

func (r *inMemoryRepository) GetBatch(ctx context.Context, ids []string) ([]*character.Character, error) {
	chars := make([]*character.Character, len(ids))
	for i, id := range ids {
		char, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		chars[i] = char
	}
	return chars, nil
}

func (r *inMemoryRepository) Update(ctx context.Context, char *character.Character) error {
	if err := char.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.characters[char.ID]; !exists {
		return errors.NotFoundf("character not found: %s", char.ID)
	}

	charCopy := *char
	r.characters[char.ID] = &charCopy
	return nil
}

func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.characters[id]; !exists {
		return errors.NotFoundf("character not found: %s", id)
	}

	delete(r.characters, id)
	return nil
}

func (r *inMemoryRepository) ListByPlayer(ctx context.Context, playerID string) ([]*character.Character, error) {
	if playerID == "" {
		return nil, errors.InvalidArgument("player ID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*character.Character
	for _, char := range r.characters {
		if char.PlayerID == playerID {
			charCopy := *char
			out = append(out, &charCopy)
		}
	}
	return out, nil
}
