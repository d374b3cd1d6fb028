// Package sessions stores table sessions and the player-to-session
// index.
package sessions

//go:generate mockgen -destination=mock/mock_repository.go -package=mocksessions -source=repository.go

import (
	"context"

	"github.com/KirkDiggler/rpg-table/internal/domain/game"
)

// Repository defines the interface for session storage operations.
type Repository interface {
	Create(ctx context.Context, sess *game.Session) error
	Get(ctx context.Context, id string) (*game.Session, error)
	Update(ctx context.Context, sess *game.Session) error
	Delete(ctx context.Context, id string) error
	ListByPlayer(ctx context.Context, playerID string) ([]*game.Session, error)
	ListActive(ctx context.Context) ([]*game.Session, error)
}
