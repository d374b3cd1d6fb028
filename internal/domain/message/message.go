// Package message holds the table chat entity. History is append-only
// per session.
package message

import "time"

// Type classifies a message.
type Type string

const (
	// TypeChat is player or DM table talk.
	TypeChat Type = "chat"
	// TypeSystem is engine-generated narration, joins, departures.
	TypeSystem Type = "system"
	// TypeRoll is a dice result broadcast to the table.
	TypeRoll Type = "roll"
)

// Message is one entry in a session's history.
type Message struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	PlayerID    string    `json:"player_id,omitempty"`
	CharacterID string    `json:"character_id,omitempty"`
	Type        Type      `json:"type"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
