// Package character holds the character sheet data the table engine
// works with. It carries only what combat, turn ordering, and session
// membership need. Full sheet management lives with the client.
package character

import (
	"github.com/KirkDiggler/rpg-table/internal/dice"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// AbilityScores are the six raw scores, 1-30.
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Character is a player-controlled participant. NPCs and monsters use
// the same shape with a synthetic ID.
type Character struct {
	ID         string        `json:"id"`
	PlayerID   string        `json:"player_id,omitempty"`
	Name       string        `json:"name"`
	Level      int           `json:"level"`
	Abilities  AbilityScores `json:"abilities"`
	CurrentHP  int           `json:"current_hp"`
	MaxHP      int           `json:"max_hp"`
	ArmorClass int           `json:"armor_class"`

	// InitiativeBonus is added on top of the dexterity modifier when
	// rolling initiative (feats, class features).
	InitiativeBonus int `json:"initiative_bonus,omitempty"`
}

// Validate checks the fields combat and turn ordering depend on.
func (c *Character) Validate() error {
	if c == nil {
		return errors.InvalidArgument("character cannot be nil")
	}
	if c.ID == "" {
		return errors.InvalidArgument("character id is required")
	}
	if c.Name == "" {
		return errors.InvalidArgument("character name is required")
	}
	if c.MaxHP < 1 {
		return errors.InvalidArgumentf("character %s must have max HP of at least 1", c.ID)
	}
	if c.CurrentHP < 0 || c.CurrentHP > c.MaxHP {
		return errors.InvalidArgumentf("character %s current HP %d outside [0, %d]", c.ID, c.CurrentHP, c.MaxHP)
	}
	return nil
}

// DexterityModifier returns the derived modifier for the dexterity score.
func (c *Character) DexterityModifier() int {
	return dice.AbilityModifier(c.Abilities.Dexterity)
}

// InitiativeModifier is the flat bonus applied to initiative rolls.
func (c *Character) InitiativeModifier() int {
	return c.DexterityModifier() + c.InitiativeBonus
}

// ProficiencyBonus follows the standard progression: +2 at level 1,
// increasing by 1 every four levels.
func (c *Character) ProficiencyBonus() int {
	if c.Level < 1 {
		return 2
	}
	return 2 + (c.Level-1)/4
}

// IsAlive reports whether the character has hit points remaining.
func (c *Character) IsAlive() bool {
	return c.CurrentHP > 0
}
