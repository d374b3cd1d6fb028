// Package presence stores per-session connection records keyed by
// player and connection ID.
package presence

//go:generate mockgen -destination=mock/mock_repository.go -package=mockpresence -source=repository.go

import (
	"context"

	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
)

// Repository defines the interface for presence storage operations.
// A record is addressed by (sessionID, playerID, connectionID); a
// player with two open connections has two records.
type Repository interface {
	Upsert(ctx context.Context, rec *presence.Record) error
	Get(ctx context.Context, sessionID, playerID, connectionID string) (*presence.Record, error)
	ListBySession(ctx context.Context, sessionID string) ([]*presence.Record, error)
	Delete(ctx context.Context, sessionID, playerID, connectionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
}
