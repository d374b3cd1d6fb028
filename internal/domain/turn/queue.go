// Package turn holds the turn queue state for a session: the ordered
// participants, whose turn is active, and the per-turn action history.
package turn

import "time"

// Status is the lifecycle position of one participant's turn within
// the current round.
type Status string

const (
	// StatusWaiting means the turn has not come up this round.
	StatusWaiting Status = "waiting"
	// StatusReady means the player has signalled they are ready.
	StatusReady Status = "ready"
	// StatusActive means the participant is acting now.
	StatusActive Status = "active"
	// StatusCompleted means the turn finished normally this round.
	StatusCompleted Status = "completed"
	// StatusSkipped means the turn was passed over. Unlike completed
	// turns, skipped marks survive the round wraparound.
	StatusSkipped Status = "skipped"
)

// Turn is one participant's slot in the queue. The timestamps cover
// the current round's activation; they reset when the round wraps.
type Turn struct {
	CharacterID   string     `json:"character_id"`
	CharacterName string     `json:"character_name"`
	Initiative    int        `json:"initiative"`
	Status        Status     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// ActionRecord is one entry in the append-only turn history. It tracks
// what was declared, not its mechanical outcome.
type ActionRecord struct {
	CharacterID string    `json:"character_id"`
	Round       int       `json:"round"`
	ActionType  string    `json:"action_type"`
	Details     string    `json:"details,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Queue is the turn order for one session. The active turn is always
// the one at CurrentIndex.
type Queue struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	EncounterID  string          `json:"encounter_id,omitempty"`
	Round        int             `json:"round"`
	CurrentIndex int             `json:"current_index"`
	Turns        []*Turn         `json:"turns"`
	History      []*ActionRecord `json:"history"`
	StartedAt    time.Time       `json:"started_at"`
}

// NewQueue builds a queue from turns already in order. The first turn
// starts active, the rest waiting.
func NewQueue(id, sessionID string, turns []*Turn, startedAt time.Time) *Queue {
	for i, t := range turns {
		if i == 0 {
			t.Status = StatusActive
			start := startedAt
			t.StartedAt = &start
		} else {
			t.Status = StatusWaiting
		}
	}
	return &Queue{
		ID:           id,
		SessionID:    sessionID,
		Round:        1,
		CurrentIndex: 0,
		Turns:        turns,
		StartedAt:    startedAt,
	}
}

// ActiveTurn returns the turn currently being taken, or nil when the
// slot at the current index is not active.
func (q *Queue) ActiveTurn() *Turn {
	if len(q.Turns) == 0 {
		return nil
	}
	t := q.Turns[q.CurrentIndex]
	if t.Status != StatusActive {
		return nil
	}
	return t
}

// FindTurn looks up a participant's turn by character ID.
func (q *Queue) FindTurn(characterID string) *Turn {
	for _, t := range q.Turns {
		if t.CharacterID == characterID {
			return t
		}
	}
	return nil
}

// Advance closes out the current slot and activates the next one,
// wrapping to the top of the order as needed. An active current turn
// is marked completed; a turn already marked skipped keeps that mark.
// The outgoing turn is stamped with an end time and the incoming one
// with a start time. On wraparound the round increments and completed
// turns reset to waiting for the new round. Returns the newly active
// turn and whether a new round began.
func (q *Queue) Advance(now time.Time) (next *Turn, newRound bool) {
	if len(q.Turns) == 0 {
		return nil, false
	}

	current := q.Turns[q.CurrentIndex]
	if current.Status == StatusActive {
		current.Status = StatusCompleted
	}
	if current.Status == StatusCompleted || current.Status == StatusSkipped {
		end := now
		current.EndedAt = &end
	}

	q.CurrentIndex = (q.CurrentIndex + 1) % len(q.Turns)
	if q.CurrentIndex == 0 {
		q.Round++
		newRound = true
		for _, t := range q.Turns {
			if t.Status == StatusCompleted {
				t.Status = StatusWaiting
				t.StartedAt = nil
				t.EndedAt = nil
			}
		}
	}

	next = q.Turns[q.CurrentIndex]
	next.Status = StatusActive
	start := now
	next.StartedAt = &start
	next.EndedAt = nil
	return next, newRound
}

// AllReady reports whether every turn is ready or active.
func (q *Queue) AllReady() bool {
	for _, t := range q.Turns {
		if t.Status != StatusReady && t.Status != StatusActive {
			return false
		}
	}
	return true
}

// AddAction appends to the history, stamping the record with the
// current round.
func (q *Queue) AddAction(record *ActionRecord) {
	record.Round = q.Round
	q.History = append(q.History, record)
}

// RecentHistory returns up to limit records from the tail of the
// history, oldest first. A non-positive limit returns everything.
func (q *Queue) RecentHistory(limit int) []*ActionRecord {
	if limit <= 0 || limit > len(q.History) {
		limit = len(q.History)
	}
	out := make([]*ActionRecord, limit)
	copy(out, q.History[len(q.History)-limit:])
	return out
}
