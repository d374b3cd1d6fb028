// Package game holds the session entity: who is at the table and in
// what role.
package game

import "time"

// SessionStatus is the session lifecycle state.
type SessionStatus string

const (
	SessionStatusPlanning SessionStatus = "planning"
	SessionStatusActive   SessionStatus = "active"
	SessionStatusPaused   SessionStatus = "paused"
	SessionStatusEnded    SessionStatus = "ended"
)

// MemberRole distinguishes the DM from players.
type MemberRole string

const (
	MemberRoleDM     MemberRole = "dm"
	MemberRolePlayer MemberRole = "player"
)

// SessionMember is one player's seat at the table.
type SessionMember struct {
	PlayerID    string     `json:"player_id"`
	Role        MemberRole `json:"role"`
	CharacterID string     `json:"character_id,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastActive  time.Time  `json:"last_active"`
}

// Session is one table: a named group of members run by a DM.
type Session struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	CreatorID string                    `json:"creator_id"`
	Status    SessionStatus             `json:"status"`
	Members   map[string]*SessionMember `json:"members"`
	CreatedAt time.Time                 `json:"created_at"`
	StartedAt *time.Time                `json:"started_at,omitempty"`
	EndedAt   *time.Time                `json:"ended_at,omitempty"`
}

// NewSession creates a session in planning with the creator seated as
// the DM.
func NewSession(id, name, creatorID string, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Name:      name,
		CreatorID: creatorID,
		Status:    SessionStatusPlanning,
		Members:   make(map[string]*SessionMember),
		CreatedAt: now,
	}
	s.AddMember(creatorID, MemberRoleDM, now)
	return s
}

// IsActive reports whether the session is accepting play.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusPlanning ||
		s.Status == SessionStatusActive ||
		s.Status == SessionStatusPaused
}

// CanJoin reports whether a new player may take a seat.
func (s *Session) CanJoin() bool {
	return s.Status != SessionStatusEnded
}

// AddMember seats a player. A player already seated keeps their
// existing seat.
func (s *Session) AddMember(playerID string, role MemberRole, now time.Time) *SessionMember {
	if s.Members == nil {
		s.Members = make(map[string]*SessionMember)
	}
	if m, exists := s.Members[playerID]; exists {
		return m
	}
	m := &SessionMember{
		PlayerID:   playerID,
		Role:       role,
		JoinedAt:   now,
		LastActive: now,
	}
	s.Members[playerID] = m
	return m
}

// RemoveMember takes a player's seat away.
func (s *Session) RemoveMember(playerID string) {
	delete(s.Members, playerID)
}

// SetCharacter binds a character to a member's seat. Returns false
// when the player is not seated.
func (s *Session) SetCharacter(playerID, characterID string, now time.Time) bool {
	m := s.GetMember(playerID)
	if m == nil {
		return false
	}
	m.CharacterID = characterID
	m.LastActive = now
	return true
}

// Start moves a planning session to active.
func (s *Session) Start(now time.Time) bool {
	if s.Status != SessionStatusPlanning {
		return false
	}
	s.Status = SessionStatusActive
	s.StartedAt = &now
	return true
}

// Pause suspends an active session.
func (s *Session) Pause() bool {
	if s.Status != SessionStatusActive {
		return false
	}
	s.Status = SessionStatusPaused
	return true
}

// Resume reopens a paused session.
func (s *Session) Resume() bool {
	if s.Status != SessionStatusPaused {
		return false
	}
	s.Status = SessionStatusActive
	return true
}

// End closes the session for good. Ended is terminal.
func (s *Session) End(now time.Time) bool {
	if s.Status == SessionStatusEnded {
		return false
	}
	s.Status = SessionStatusEnded
	s.EndedAt = &now
	return true
}

// GetMember returns the member entry for a player, or nil.
func (s *Session) GetMember(playerID string) *SessionMember {
	if s.Members == nil {
		return nil
	}
	return s.Members[playerID]
}

// IsDM reports whether the player runs this session.
func (s *Session) IsDM(playerID string) bool {
	m := s.GetMember(playerID)
	return m != nil && m.Role == MemberRoleDM
}

// PlayerIDs returns the ids of every member.
func (s *Session) PlayerIDs() []string {
	ids := make([]string, 0, len(s.Members))
	for id := range s.Members {
		ids = append(ids, id)
	}
	return ids
}
