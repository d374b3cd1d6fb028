// Package tokens stores reconnection tokens. Tokens are looked up by
// their SHA-256 hash; the raw secret never reaches this layer.
package tokens

//go:generate mockgen -destination=mock/mock_repository.go -package=mocktokens -source=repository.go

import (
	"context"
	"time"

	"github.com/KirkDiggler/rpg-table/internal/domain/reconnect"
)

// Repository defines the interface for reconnection token storage.
type Repository interface {
	Create(ctx context.Context, tok *reconnect.Token) error
	Get(ctx context.Context, id string) (*reconnect.Token, error)
	GetByHash(ctx context.Context, hash string) (*reconnect.Token, error)

	// Consume redeems the token with the given hash: exactly one caller
	// gets the token back, every other caller (and every later call)
	// gets an invalid-token error. Expired, revoked, and unknown tokens
	// fail with invalid-token as well.
	Consume(ctx context.Context, hash string, now time.Time) (*reconnect.Token, error)

	// Invalidate revokes a single token by ID.
	Invalidate(ctx context.Context, id string) error

	// InvalidatePair revokes every still-valid token issued to the
	// player for the session and returns how many were revoked.
	InvalidatePair(ctx context.Context, playerID, sessionID string) (int, error)

	// DeleteExpired removes tokens whose lifetime has passed and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
