// Package messages stores the recent chat and system messages for a
// session. The backlog is capped; old messages fall off the front.
package messages

//go:generate mockgen -destination=mock/mock_repository.go -package=mockmessages -source=repository.go

import (
	"context"

	"github.com/KirkDiggler/rpg-table/internal/domain/message"
)

// Repository defines the interface for message storage operations.
type Repository interface {
	Append(ctx context.Context, msg *message.Message) error

	// Recent returns up to limit messages, oldest first. A limit of
	// zero or less returns the whole retained backlog.
	Recent(ctx context.Context, sessionID string, limit int) ([]*message.Message, error)

	CountBySession(ctx context.Context, sessionID string) (int, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
