package combat

import (
	"time"

	"github.com/KirkDiggler/rpg-table/internal/dice"
)

// LogEventType classifies combat log entries.
type LogEventType string

const (
	LogEventCombatStart LogEventType = "combat_start"
	LogEventRoundStart  LogEventType = "round_start"
	LogEventAttack      LogEventType = "attack"
	LogEventDamage      LogEventType = "damage"
	LogEventHealing     LogEventType = "healing"
	LogEventDefeat      LogEventType = "defeat"
	LogEventVictory     LogEventType = "victory"
	LogEventCombatEnd   LogEventType = "combat_end"
)

// maxLogEntries bounds per-encounter log retention. Older entries are
// dropped from the front.
const maxLogEntries = 50

// LogEntry is one combat event. Payload fields are set according to
// Type: Attack for attack events, Roll and Amount for damage and
// healing, Order for combat start.
type LogEntry struct {
	Type      LogEventType `json:"type"`
	Round     int          `json:"round"`
	Timestamp time.Time    `json:"timestamp"`

	ActorID  string `json:"actor_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`

	Attack *dice.AttackResult `json:"attack,omitempty"`
	Roll   *dice.RollResult   `json:"roll,omitempty"`
	Amount int                `json:"amount,omitempty"`
	Order  []string           `json:"order,omitempty"`
}

// AddLogEntry appends an event, stamping it with the current round,
// and trims the log to the retention cap.
func (e *Encounter) AddLogEntry(entry *LogEntry) {
	entry.Round = e.Round
	e.Log = append(e.Log, entry)
	if len(e.Log) > maxLogEntries {
		e.Log = e.Log[len(e.Log)-maxLogEntries:]
	}
}

// RecentLog returns up to limit entries from the tail of the log,
// oldest first. A non-positive limit returns the whole retained log.
func (e *Encounter) RecentLog(limit int) []*LogEntry {
	if limit <= 0 || limit > len(e.Log) {
		limit = len(e.Log)
	}
	out := make([]*LogEntry, limit)
	copy(out, e.Log[len(e.Log)-limit:])
	return out
}
