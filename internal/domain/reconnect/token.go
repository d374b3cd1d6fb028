// Package reconnect holds the one-time reconnection token and the
// session snapshot a returning player receives. Only the SHA-256 hash
// of a token secret is ever stored; the raw secret exists once, in the
// create response.
package reconnect

import (
	"time"

	"github.com/KirkDiggler/rpg-table/internal/domain/character"
	"github.com/KirkDiggler/rpg-table/internal/domain/game"
	"github.com/KirkDiggler/rpg-table/internal/domain/message"
	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
	"github.com/KirkDiggler/rpg-table/internal/domain/turn"
)

// Token is the stored side of a reconnection secret.
type Token struct {
	ID        string     `json:"id"`
	PlayerID  string     `json:"player_id"`
	SessionID string     `json:"session_id"`
	TokenHash string     `json:"token_hash"`
	Valid     bool       `json:"valid"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// IsExpired reports whether the token's lifetime has passed.
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsRedeemable reports whether the token can still be consumed.
func (t *Token) IsRedeemable(now time.Time) bool {
	return t.Valid && t.UsedAt == nil && !t.IsExpired(now)
}

// TokenInfo is token metadata safe to expose: no secret, no hash.
type TokenInfo struct {
	ID        string     `json:"id"`
	PlayerID  string     `json:"player_id"`
	SessionID string     `json:"session_id"`
	Valid     bool       `json:"valid"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Info strips the hash from a token.
func (t *Token) Info() *TokenInfo {
	return &TokenInfo{
		ID:        t.ID,
		PlayerID:  t.PlayerID,
		SessionID: t.SessionID,
		Valid:     t.Valid,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
		UsedAt:    t.UsedAt,
	}
}

// Snapshot is everything a returning player needs to rebuild their
// view of the table.
type Snapshot struct {
	PlayerID       string               `json:"player_id"`
	SessionID      string               `json:"session_id"`
	Session        *game.Session        `json:"session"`
	Character      *character.Character `json:"character,omitempty"`
	CurrentTurn    *turn.Turn           `json:"current_turn,omitempty"`
	Queue          *turn.Queue          `json:"queue,omitempty"`
	RecentMessages []*message.Message   `json:"recent_messages"`
	OtherPresence  []*presence.Record   `json:"other_presence"`
	RestoredAt     time.Time            `json:"restored_at"`
}
