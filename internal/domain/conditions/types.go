// Package conditions implements the status-effect rules: the closed set of
// condition types, their durations, and how simultaneous conditions combine
// into one mechanical effect.
package conditions

import "time"

// Type identifies a condition. The set is closed; effect aggregation
// switches over it exhaustively.
type Type string

const (
	Blinded       Type = "blinded"
	Charmed       Type = "charmed"
	Deafened      Type = "deafened"
	Exhaustion    Type = "exhaustion"
	Frightened    Type = "frightened"
	Grappled      Type = "grappled"
	Incapacitated Type = "incapacitated"
	Invisible     Type = "invisible"
	Paralyzed     Type = "paralyzed"
	Petrified     Type = "petrified"
	Poisoned      Type = "poisoned"
	Prone         Type = "prone"
	Restrained    Type = "restrained"
	Stunned       Type = "stunned"
	Unconscious   Type = "unconscious"
)

// AllTypes lists every condition type in a stable order
func AllTypes() []Type {
	return []Type{
		Blinded, Charmed, Deafened, Exhaustion, Frightened,
		Grappled, Incapacitated, Invisible, Paralyzed, Petrified,
		Poisoned, Prone, Restrained, Stunned, Unconscious,
	}
}

// IsValid reports whether t is a known condition type
func (t Type) IsValid() bool {
	switch t {
	case Blinded, Charmed, Deafened, Exhaustion, Frightened,
		Grappled, Incapacitated, Invisible, Paralyzed, Petrified,
		Poisoned, Prone, Restrained, Stunned, Unconscious:
		return true
	}
	return false
}

// Description returns the fixed mechanical summary for a condition
func (t Type) Description() string {
	switch t {
	case Blinded:
		return "Can't see. Attack rolls have disadvantage; attack rolls against the creature have advantage."
	case Charmed:
		return "Can't attack the charmer or target them with harmful effects; the charmer has advantage on social checks."
	case Deafened:
		return "Can't hear and automatically fails checks that rely on hearing."
	case Exhaustion:
		return "Cumulative fatigue imposing penalties on checks, speed, and eventually death."
	case Frightened:
		return "Disadvantage on checks and attacks while the source of fear is in sight; can't willingly move closer to it."
	case Grappled:
		return "Speed becomes 0 and can't benefit from speed bonuses."
	case Incapacitated:
		return "Can't take actions or reactions."
	case Invisible:
		return "Can't be seen. Attack rolls have advantage; attack rolls against the creature have disadvantage."
	case Paralyzed:
		return "Incapacitated, can't move or speak, auto-fails Strength and Dexterity saves; attacks against have advantage."
	case Petrified:
		return "Turned to stone: incapacitated, can't move or speak, auto-fails Strength and Dexterity saves; attacks against have advantage."
	case Poisoned:
		return "Disadvantage on attack rolls and ability checks."
	case Prone:
		return "Can only crawl; attack rolls have disadvantage."
	case Restrained:
		return "Speed becomes 0; attack rolls have disadvantage, attacks against have advantage, Dexterity saves have disadvantage."
	case Stunned:
		return "Incapacitated, can't move, auto-fails Strength and Dexterity saves; attacks against have advantage."
	case Unconscious:
		return "Incapacitated, unaware, drops prone, auto-fails Strength and Dexterity saves; attacks against have advantage."
	}
	return ""
}

// DurationKind defines how a condition's lifetime is measured
type DurationKind string

const (
	// DurationInstant applies and expires immediately
	DurationInstant DurationKind = "instant"

	// DurationRounds lasts a counted number of combat rounds
	DurationRounds DurationKind = "rounds"

	// DurationMinutes lasts the given number of minutes of game time
	DurationMinutes DurationKind = "minutes"

	// DurationHours lasts the given number of hours of game time
	DurationHours DurationKind = "hours"

	// DurationUntilSave lasts until a successful saving throw
	DurationUntilSave DurationKind = "until_save"

	// DurationUntilDispelled lasts until explicitly removed
	DurationUntilDispelled DurationKind = "until_dispelled"

	// DurationPermanent never expires on its own
	DurationPermanent DurationKind = "permanent"
)

// IsValid reports whether k is a known duration kind
func (k DurationKind) IsValid() bool {
	switch k {
	case DurationInstant, DurationRounds, DurationMinutes, DurationHours,
		DurationUntilSave, DurationUntilDispelled, DurationPermanent:
		return true
	}
	return false
}

// Condition is one active status effect on a character
type Condition struct {
	ID          string       `json:"id"`
	Type        Type         `json:"type"`
	Description string       `json:"description"`
	Source      string       `json:"source"`

	DurationKind    DurationKind `json:"duration_kind"`
	DurationValue   int          `json:"duration_value"`
	RoundsRemaining int          `json:"rounds_remaining"`

	SaveDC      int    `json:"save_dc,omitempty"`
	SaveAbility string `json:"save_ability,omitempty"`

	AppliedAt time.Time `json:"applied_at"`
}

// Effect is the merged mechanical consequence of every active condition on a
// character. Flags union across conditions; nothing overrides.
type Effect struct {
	CanAct        bool `json:"can_act"`
	CanMove       bool `json:"can_move"`
	Incapacitated bool `json:"incapacitated"`

	AttackAdvantage            bool `json:"attack_advantage"`
	AttackDisadvantage         bool `json:"attack_disadvantage"`
	AttacksAgainstAdvantage    bool `json:"attacks_against_advantage"`
	AttacksAgainstDisadvantage bool `json:"attacks_against_disadvantage"`

	SaveAdvantage    bool `json:"save_advantage"`
	SaveDisadvantage bool `json:"save_disadvantage"`
	AutoFailStrSaves bool `json:"auto_fail_str_saves"`
	AutoFailDexSaves bool `json:"auto_fail_dex_saves"`

	// SpeedOverride forces speed to the given value when set; nil means no
	// override. Merging keeps the most restrictive value.
	SpeedOverride *int `json:"speed_override,omitempty"`
	IsProne       bool `json:"is_prone"`

	ActiveConditions []Type `json:"active_conditions"`
}

// mergeType folds one condition's rules into the running effect
func mergeType(e *Effect, t Type) {
	switch t {
	case Blinded:
		e.AttackDisadvantage = true
		e.AttacksAgainstAdvantage = true
	case Charmed, Deafened, Exhaustion:
		// No flags in the merged record; the description carries the rule.
	case Frightened:
		e.AttackDisadvantage = true
	case Grappled:
		overrideSpeed(e, 0)
	case Incapacitated:
		e.Incapacitated = true
	case Invisible:
		e.AttackAdvantage = true
		e.AttacksAgainstDisadvantage = true
	case Paralyzed:
		e.Incapacitated = true
		e.AutoFailStrSaves = true
		e.AutoFailDexSaves = true
		e.AttacksAgainstAdvantage = true
		overrideSpeed(e, 0)
	case Petrified:
		e.Incapacitated = true
		e.AutoFailStrSaves = true
		e.AutoFailDexSaves = true
		e.AttacksAgainstAdvantage = true
		overrideSpeed(e, 0)
	case Poisoned:
		e.AttackDisadvantage = true
	case Prone:
		e.AttackDisadvantage = true
		e.IsProne = true
	case Restrained:
		e.AttackDisadvantage = true
		e.AttacksAgainstAdvantage = true
		e.SaveDisadvantage = true
		overrideSpeed(e, 0)
	case Stunned:
		e.Incapacitated = true
		e.AutoFailStrSaves = true
		e.AutoFailDexSaves = true
		e.AttacksAgainstAdvantage = true
	case Unconscious:
		e.Incapacitated = true
		e.AutoFailStrSaves = true
		e.AutoFailDexSaves = true
		e.AttacksAgainstAdvantage = true
		e.IsProne = true
	}
}

func overrideSpeed(e *Effect, speed int) {
	if e.SpeedOverride == nil || speed < *e.SpeedOverride {
		e.SpeedOverride = &speed
	}
}

// immobilized reports whether the type forces movement to stop
func immobilized(t Type) bool {
	switch t {
	case Grappled, Restrained, Paralyzed, Petrified:
		return true
	}
	return false
}
