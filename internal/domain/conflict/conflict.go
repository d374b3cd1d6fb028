// Package conflict holds the types the sync manager works with:
// proposed actions, detected conflicts, and the discrepancies between
// a client view and authoritative state.
package conflict

import "time"

// Type classifies a detected conflict.
type Type string

const (
	// TypeSimultaneousAction is the same character acting twice within
	// the simultaneity window.
	TypeSimultaneousAction Type = "simultaneous_action"
	// TypeTurnOrderViolation is an action from a character that does
	// not hold the active turn.
	TypeTurnOrderViolation Type = "turn_order_violation"
	// TypeResource is two characters contesting the same target.
	TypeResource Type = "resource_conflict"
	// TypeStateMismatch is a client view disagreeing with
	// authoritative state.
	TypeStateMismatch Type = "state_mismatch"
)

// Strategy picks the winner of a conflict.
type Strategy string

const (
	// StrategyFirstCome awards the earliest submitted action.
	StrategyFirstCome Strategy = "first_come_first_served"
	// StrategyInitiative awards the highest current initiative.
	StrategyInitiative Strategy = "initiative_order"
	// StrategyReroll picks a winner at random.
	StrategyReroll Strategy = "random_reroll"
	// StrategyDMDecision records an explicit human ruling.
	StrategyDMDecision Strategy = "dm_decision"
	// StrategyCancelAll settles a conflict with no winner; every
	// involved action is dropped.
	StrategyCancelAll Strategy = "cancel_all"
)

// ProposedAction is one pending action in a batch under conflict scan.
type ProposedAction struct {
	CharacterID string    `json:"character_id"`
	ActionType  string    `json:"action_type"`
	TargetID    string    `json:"target_id,omitempty"`
	Contested   bool      `json:"contested,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Resolution records how a conflict was settled.
type Resolution struct {
	Strategy   Strategy  `json:"strategy"`
	WinnerID   string    `json:"winner_id,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Conflict is one detected clash between proposed actions.
type Conflict struct {
	ID           string      `json:"id"`
	SessionID    string      `json:"session_id"`
	Type         Type        `json:"type"`
	CharacterIDs []string    `json:"character_ids"`
	TargetID     string      `json:"target_id,omitempty"`
	Description  string      `json:"description"`
	DetectedAt   time.Time   `json:"detected_at"`
	Resolution   *Resolution `json:"resolution,omitempty"`
}

// IsResolved reports whether the conflict has been settled.
func (c *Conflict) IsResolved() bool {
	return c.Resolution != nil
}

// ClientView is a client's claim about session state, checked against
// the authoritative view.
type ClientView struct {
	CurrentTurnCharacterID string         `json:"current_turn_character_id"`
	Round                  int            `json:"round"`
	CharacterHP            map[string]int `json:"character_hp,omitempty"`
}

// Discrepancy severities. Critical fields desynchronize the flow of
// play; warnings are display-level drift.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Discrepancy is one disagreement between client and server state.
type Discrepancy struct {
	Field    string `json:"field"`
	Client   string `json:"client"`
	Server   string `json:"server"`
	Severity string `json:"severity,omitempty"`
}
