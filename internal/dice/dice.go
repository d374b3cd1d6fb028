// Package dice resolves dice formulas, ability checks, attacks, and damage.
// Rolls come from an injectable Roller so game logic stays deterministic in
// tests while production uses an unpredictable source.
package dice

import (
	"math"

	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// AdvantageMode selects how a single d20 roll is made
type AdvantageMode string

const (
	// ModeNormal rolls once
	ModeNormal AdvantageMode = "normal"

	// ModeAdvantage rolls twice and keeps the higher die
	ModeAdvantage AdvantageMode = "advantage"

	// ModeDisadvantage rolls twice and keeps the lower die
	ModeDisadvantage AdvantageMode = "disadvantage"
)

// RollResult is the outcome of rolling one formula. With advantage or
// disadvantage both raw rolls appear in Rolls; RawTotal and the critical
// flags reflect the kept die only.
type RollResult struct {
	Total    int           `json:"total"`
	Rolls    []int         `json:"rolls"`
	Bonus    int           `json:"bonus"`
	Count    int           `json:"count"`
	Sides    int           `json:"sides"`
	RawTotal int           `json:"raw_total"`
	Formula  string        `json:"formula,omitempty"`
	Mode     AdvantageMode `json:"mode,omitempty"`
	IsCrit   bool          `json:"is_crit"`
	IsFumble bool          `json:"is_fumble"`
}

// CheckResult is the outcome of an ability check against a DC
type CheckResult struct {
	Success        bool          `json:"success"`
	Roll           int           `json:"roll"`
	Modifier       int           `json:"modifier"`
	Total          int           `json:"total"`
	DC             int           `json:"dc"`
	Rolls          []int         `json:"rolls"`
	Mode           AdvantageMode `json:"mode"`
	IsCritical     bool          `json:"is_critical"`
	IsCriticalFail bool          `json:"is_critical_fail"`
}

// AttackResult is the outcome of an attack roll against an armor class
type AttackResult struct {
	Hit            bool          `json:"hit"`
	Roll           int           `json:"roll"`
	AttackBonus    int           `json:"attack_bonus"`
	Total          int           `json:"total"`
	TargetAC       int           `json:"target_ac"`
	Rolls          []int         `json:"rolls"`
	Mode           AdvantageMode `json:"mode"`
	IsCritical     bool          `json:"is_critical"`
	IsCriticalFail bool          `json:"is_critical_fail"`
}

// AbilityModifier converts an ability score to its modifier, flooring so
// scores below 10 round down (7 becomes -2, not -1).
func AbilityModifier(score int) int {
	return int(math.Floor(float64(score-10) / 2))
}

// RollFormula rolls a parsed formula. Advantage and disadvantage only apply
// to a single d20; any other formula rolls normally and Mode records what
// actually happened.
func RollFormula(r Roller, f *Formula, mode AdvantageMode) (*RollResult, error) {
	if f == nil {
		return nil, errors.InvalidArgument("nil dice formula")
	}

	if mode != ModeNormal && mode != "" && f.Count == 1 && f.Sides == 20 {
		var result *RollResult
		var err error
		if mode == ModeAdvantage {
			result, err = r.RollWithAdvantage(f.Sides, f.Modifier)
		} else {
			result, err = r.RollWithDisadvantage(f.Sides, f.Modifier)
		}
		if err != nil {
			return nil, err
		}
		result.Formula = f.String()
		result.Mode = mode
		return result, nil
	}

	result, err := r.Roll(f.Count, f.Sides, f.Modifier)
	if err != nil {
		return nil, err
	}
	result.Formula = f.String()
	result.Mode = ModeNormal
	return result, nil
}

// RollString parses and rolls a formula in one step
func RollString(r Roller, text string) (*RollResult, error) {
	formula, err := ParseFormula(text)
	if err != nil {
		return nil, err
	}
	return RollFormula(r, formula, ModeNormal)
}

// ResolveCheck rolls a d20 ability check. A natural 20 always succeeds and a
// natural 1 always fails, regardless of modifiers.
func ResolveCheck(r Roller, abilityScore, dc, proficiencyBonus int, mode AdvantageMode) (*CheckResult, error) {
	modifier := AbilityModifier(abilityScore) + proficiencyBonus

	roll, err := rollD20(r, modifier, mode)
	if err != nil {
		return nil, err
	}

	success := roll.Total >= dc
	if roll.IsCrit {
		success = true
	}
	if roll.IsFumble {
		success = false
	}

	return &CheckResult{
		Success:        success,
		Roll:           roll.RawTotal,
		Modifier:       modifier,
		Total:          roll.Total,
		DC:             dc,
		Rolls:          roll.Rolls,
		Mode:           roll.Mode,
		IsCritical:     roll.IsCrit,
		IsCriticalFail: roll.IsFumble,
	}, nil
}

// ResolveAttack rolls a d20 attack against a target armor class. Same shape
// as ResolveCheck with a flat attack bonus.
func ResolveAttack(r Roller, attackBonus, targetAC int, mode AdvantageMode) (*AttackResult, error) {
	roll, err := rollD20(r, attackBonus, mode)
	if err != nil {
		return nil, err
	}

	hit := roll.Total >= targetAC
	if roll.IsCrit {
		hit = true
	}
	if roll.IsFumble {
		hit = false
	}

	return &AttackResult{
		Hit:            hit,
		Roll:           roll.RawTotal,
		AttackBonus:    attackBonus,
		Total:          roll.Total,
		TargetAC:       targetAC,
		Rolls:          roll.Rolls,
		Mode:           roll.Mode,
		IsCritical:     roll.IsCrit,
		IsCriticalFail: roll.IsFumble,
	}, nil
}

// RollDamage rolls a damage formula. A critical hit doubles the number of
// dice rolled, never the modifier.
func RollDamage(r Roller, f *Formula, critical bool) (*RollResult, error) {
	if f == nil {
		return nil, errors.InvalidArgument("nil dice formula")
	}

	rolled := *f
	if critical {
		rolled.Count *= 2
	}

	result, err := r.Roll(rolled.Count, rolled.Sides, rolled.Modifier)
	if err != nil {
		return nil, err
	}
	result.Formula = rolled.String()
	result.Mode = ModeNormal
	return result, nil
}

func rollD20(r Roller, bonus int, mode AdvantageMode) (*RollResult, error) {
	switch mode {
	case ModeAdvantage:
		return r.RollWithAdvantage(20, bonus)
	case ModeDisadvantage:
		return r.RollWithDisadvantage(20, bonus)
	default:
		result, err := r.Roll(1, 20, bonus)
		if err != nil {
			return nil, err
		}
		result.Mode = ModeNormal
		return result, nil
	}
}
