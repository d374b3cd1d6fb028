// Package characters stores character sheets. The engine treats them
// as read-mostly input; writes come from the owning client.
package characters

//go:generate mockgen -destination=mock/mock_repository.go -package=mockcharacters -source=repository.go

import (
	"context"

	"github.com/KirkDiggler/rpg-table/internal/domain/character"
)

// Repository defines the interface for character storage operations.
type Repository interface {
	Create(ctx context.Context, char *character.Character) error
	Get(ctx context.Context, id string) (*character.Character, error)
	// GetBatch fetches several characters at once, failing if any one
	// of them is missing.
	GetBatch(ctx context.Context, ids []string) ([]*character.Character, error)
	Update(ctx context.Context, char *character.Character) error
	Delete(ctx context.Context, id string) error
	ListByPlayer(ctx context.Context, playerID string) ([]*character.Character, error)
}
