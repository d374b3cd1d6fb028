package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/rpg-table/internal/domain/character"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

func validCharacter() *character.Character {
	return &character.Character{
		ID:       "char_1",
		PlayerID: "player_1",
		Name:     "Thorin",
		Level:    3,
		Abilities: character.AbilityScores{
			Strength:     16,
			Dexterity:    14,
			Constitution: 15,
			Intelligence: 10,
			Wisdom:       12,
			Charisma:     8,
		},
		CurrentHP:  28,
		MaxHP:      28,
		ArmorClass: 16,
	}
}

func TestCharacter_Validate(t *testing.T) {
	t.Run("valid character passes", func(t *testing.T) {
		assert.NoError(t, validCharacter().Validate())
	})

	t.Run("missing fields fail", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(c *character.Character)
		}{
			{"no id", func(c *character.Character) { c.ID = "" }},
			{"no name", func(c *character.Character) { c.Name = "" }},
			{"zero max HP", func(c *character.Character) { c.MaxHP = 0 }},
			{"negative current HP", func(c *character.Character) { c.CurrentHP = -1 }},
			{"current HP above max", func(c *character.Character) { c.CurrentHP = c.MaxHP + 1 }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := validCharacter()
				tt.mutate(c)
				err := c.Validate()
				assert.Error(t, err)
				assert.True(t, errors.IsInvalidArgument(err))
			})
		}
	})
}

func TestCharacter_Modifiers(t *testing.T) {
	c := validCharacter()

	assert.Equal(t, 2, c.DexterityModifier())
	assert.Equal(t, 2, c.InitiativeModifier())

	c.InitiativeBonus = 5 // alert feat
	assert.Equal(t, 7, c.InitiativeModifier())
}

func TestCharacter_ProficiencyBonus(t *testing.T) {
	tests := []struct {
		level    int
		expected int
	}{
		{1, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
		{13, 5},
		{17, 6},
		{20, 6},
	}

	for _, tt := range tests {
		c := validCharacter()
		c.Level = tt.level
		assert.Equal(t, tt.expected, c.ProficiencyBonus(), "level %d", tt.level)
	}
}

func TestCharacter_IsAlive(t *testing.T) {
	c := validCharacter()
	assert.True(t, c.IsAlive())

	c.CurrentHP = 0
	assert.False(t, c.IsAlive())
}
