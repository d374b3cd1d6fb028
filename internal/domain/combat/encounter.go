// Package combat holds encounter state: initiative order, combatant
// hit points, action economy, and the structured combat log. All
// mutation goes through the combat service, which serializes access
// per session.
package combat

import (
	"sort"
	"time"
)

// Combatant is a participant in an encounter. HP is clamped to
// [0, MaxHP]; a combatant at 0 HP is defeated but stays in the
// initiative order.
type Combatant struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Initiative  int    `json:"initiative"`
	Dexterity   int    `json:"dexterity"`
	CurrentHP   int    `json:"current_hp"`
	MaxHP       int    `json:"max_hp"`
	ArmorClass  int    `json:"armor_class"`

	// Action economy for the current turn.
	HasActed        bool `json:"has_acted"`
	BonusActionUsed bool `json:"bonus_action_used"`
	ReactionUsed    bool `json:"reaction_used"`
}

// IsAlive reports whether the combatant has hit points remaining.
func (c *Combatant) IsAlive() bool {
	return c.CurrentHP > 0
}

// ApplyDamage reduces HP, flooring at 0, and returns the damage
// actually taken.
func (c *Combatant) ApplyDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	if amount > c.CurrentHP {
		amount = c.CurrentHP
	}
	c.CurrentHP -= amount
	return amount
}

// Heal restores HP, capping at MaxHP, and returns the amount actually
// restored. Healing a combatant at 0 HP brings them back up.
func (c *Combatant) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	if c.CurrentHP+amount > c.MaxHP {
		amount = c.MaxHP - c.CurrentHP
	}
	c.CurrentHP += amount
	return amount
}

// ResetActionEconomy clears the per-turn flags at the end of the
// combatant's turn.
func (c *Combatant) ResetActionEconomy() {
	c.HasActed = false
	c.BonusActionUsed = false
	c.ReactionUsed = false
}

// Encounter is the combat state for one session. Combatants are kept
// sorted by initiative, highest first.
type Encounter struct {
	ID         string       `json:"id"`
	SessionID  string       `json:"session_id"`
	Round      int          `json:"round"`
	TurnIndex  int          `json:"turn_index"`
	Combatants []*Combatant `json:"combatants"`
	Log        []*LogEntry  `json:"log"`
	StartedAt  time.Time    `json:"started_at"`
}

// NewEncounter builds an encounter with the given combatants sorted
// into initiative order. Ties break toward the higher dexterity score,
// then toward the earlier position in the input.
func NewEncounter(id, sessionID string, combatants []*Combatant, startedAt time.Time) *Encounter {
	sorted := make([]*Combatant, len(combatants))
	copy(sorted, combatants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Initiative != sorted[j].Initiative {
			return sorted[i].Initiative > sorted[j].Initiative
		}
		return sorted[i].Dexterity > sorted[j].Dexterity
	})

	return &Encounter{
		ID:         id,
		SessionID:  sessionID,
		Round:      1,
		TurnIndex:  0,
		Combatants: sorted,
		StartedAt:  startedAt,
	}
}

// CurrentCombatant returns whoever's turn it is, or nil for an empty
// encounter.
func (e *Encounter) CurrentCombatant() *Combatant {
	if len(e.Combatants) == 0 || e.TurnIndex >= len(e.Combatants) {
		return nil
	}
	return e.Combatants[e.TurnIndex]
}

// FindCombatant looks up a combatant by character ID.
func (e *Encounter) FindCombatant(characterID string) *Combatant {
	for _, c := range e.Combatants {
		if c.CharacterID == characterID {
			return c
		}
	}
	return nil
}

// AliveCount returns how many combatants are still standing.
func (e *Encounter) AliveCount() int {
	count := 0
	for _, c := range e.Combatants {
		if c.IsAlive() {
			count++
		}
	}
	return count
}

// LastStanding returns the sole living combatant, or nil if zero or
// more than one remain.
func (e *Encounter) LastStanding() *Combatant {
	var survivor *Combatant
	for _, c := range e.Combatants {
		if !c.IsAlive() {
			continue
		}
		if survivor != nil {
			return nil
		}
		survivor = c
	}
	return survivor
}

// AdvanceTurn ends the current combatant's turn and moves to the next
// living one, wrapping to the top of the order and advancing the round
// counter as needed. It returns the combatant now acting and whether a
// new round began. Callers must ensure at least one combatant is alive.
func (e *Encounter) AdvanceTurn() (next *Combatant, newRound bool) {
	if len(e.Combatants) == 0 {
		return nil, false
	}
	if current := e.CurrentCombatant(); current != nil {
		current.ResetActionEconomy()
	}

	// Dead combatants keep their slot but never get a turn.
	for i := 0; i < len(e.Combatants); i++ {
		e.TurnIndex++
		if e.TurnIndex >= len(e.Combatants) {
			e.TurnIndex = 0
			e.Round++
			newRound = true
		}
		if e.Combatants[e.TurnIndex].IsAlive() {
			return e.Combatants[e.TurnIndex], newRound
		}
	}
	return nil, newRound
}
