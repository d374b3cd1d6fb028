package conditions_test

import (
	"testing"

	"github.com/KirkDiggler/rpg-table/internal/domain/conditions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundsCondition(t conditions.Type, rounds int) *conditions.Condition {
	return &conditions.Condition{
		ID:              "cond_" + string(t),
		Type:            t,
		Description:     t.Description(),
		Source:          "test",
		DurationKind:    conditions.DurationRounds,
		DurationValue:   rounds,
		RoundsRemaining: rounds,
	}
}

func TestSet_Apply(t *testing.T) {
	t.Run("adds a new condition", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		applied := set.Apply(roundsCondition(conditions.Poisoned, 3))

		assert.Equal(t, conditions.Poisoned, applied.Type)
		assert.True(t, set.Has(conditions.Poisoned))
		assert.Len(t, set.Active(), 1)
	})

	t.Run("keeps the longer rounds duration on reapply", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		set.Apply(roundsCondition(conditions.Poisoned, 2))
		kept := set.Apply(roundsCondition(conditions.Poisoned, 5))

		assert.Equal(t, 5, kept.RoundsRemaining)
		assert.Len(t, set.Active(), 1)

		shorter := set.Apply(roundsCondition(conditions.Poisoned, 1))
		assert.Equal(t, 5, shorter.RoundsRemaining)
		assert.Len(t, set.Active(), 1)
	})

	t.Run("different duration kinds stack as separate entries", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		set.Apply(roundsCondition(conditions.Frightened, 2))
		set.Apply(&conditions.Condition{
			Type:         conditions.Frightened,
			DurationKind: conditions.DurationUntilSave,
			SaveDC:       13,
			SaveAbility:  "WIS",
		})

		assert.Len(t, set.Active(), 2)
	})

	t.Run("instant conditions are never retained", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		applied := set.Apply(&conditions.Condition{
			Type:         conditions.Prone,
			DurationKind: conditions.DurationInstant,
		})

		assert.Equal(t, conditions.Prone, applied.Type)
		assert.Empty(t, set.Active())
	})
}

func TestSet_AdvanceRound(t *testing.T) {
	set := conditions.NewSet("char-1")
	set.Apply(roundsCondition(conditions.Poisoned, 3))
	set.Apply(roundsCondition(conditions.Blinded, 1))
	set.Apply(&conditions.Condition{
		Type:         conditions.Charmed,
		DurationKind: conditions.DurationUntilDispelled,
	})

	expired := set.AdvanceRound()
	require.Len(t, expired, 1)
	assert.Equal(t, conditions.Blinded, expired[0].Type)
	assert.True(t, set.Has(conditions.Poisoned))
	assert.True(t, set.Has(conditions.Charmed))

	expired = set.AdvanceRound()
	assert.Empty(t, expired)

	expired = set.AdvanceRound()
	require.Len(t, expired, 1)
	assert.Equal(t, conditions.Poisoned, expired[0].Type)

	// Non-rounds conditions never tick away
	assert.True(t, set.Has(conditions.Charmed))
}

func TestSet_AdvanceRound_ExactLifetime(t *testing.T) {
	// A condition applied for R rounds survives R-1 advances and expires on
	// the Rth.
	const rounds = 4
	set := conditions.NewSet("char-1")
	set.Apply(roundsCondition(conditions.Restrained, rounds))

	for i := 0; i < rounds-1; i++ {
		expired := set.AdvanceRound()
		assert.Empty(t, expired, "advance %d", i+1)
		assert.True(t, set.Has(conditions.Restrained))
	}

	expired := set.AdvanceRound()
	require.Len(t, expired, 1)
	assert.False(t, set.Has(conditions.Restrained))
}

func TestSet_RemoveAndClear(t *testing.T) {
	set := conditions.NewSet("char-1")
	set.Apply(roundsCondition(conditions.Poisoned, 3))
	set.Apply(roundsCondition(conditions.Prone, 2))

	removed := set.Remove(conditions.Poisoned)
	require.Len(t, removed, 1)
	assert.False(t, set.Has(conditions.Poisoned))
	assert.True(t, set.Has(conditions.Prone))

	assert.Empty(t, set.Remove(conditions.Stunned))

	set.Apply(roundsCondition(conditions.Blinded, 2))
	assert.Equal(t, 2, set.Clear())
	assert.Empty(t, set.Active())
}

func TestSet_Effects(t *testing.T) {
	t.Run("empty set leaves the character unhindered", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		effect := set.Effects()

		assert.True(t, effect.CanAct)
		assert.True(t, effect.CanMove)
		assert.False(t, effect.Incapacitated)
		assert.Nil(t, effect.SpeedOverride)
		assert.Empty(t, effect.ActiveConditions)
	})

	t.Run("poisoned imposes attack disadvantage", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		set.Apply(roundsCondition(conditions.Poisoned, 3))
		effect := set.Effects()

		assert.True(t, effect.AttackDisadvantage)
		assert.True(t, effect.CanAct)
		assert.True(t, effect.CanMove)
	})

	t.Run("restrained zeroes speed and opens the character up", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		set.Apply(roundsCondition(conditions.Restrained, 2))
		effect := set.Effects()

		assert.True(t, effect.AttackDisadvantage)
		assert.True(t, effect.AttacksAgainstAdvantage)
		assert.True(t, effect.SaveDisadvantage)
		require.NotNil(t, effect.SpeedOverride)
		assert.Equal(t, 0, *effect.SpeedOverride)
		assert.False(t, effect.CanMove)
		assert.True(t, effect.CanAct)
	})

	t.Run("paralyzed shuts the character down", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		set.Apply(roundsCondition(conditions.Paralyzed, 1))
		effect := set.Effects()

		assert.True(t, effect.Incapacitated)
		assert.False(t, effect.CanAct)
		assert.False(t, effect.CanMove)
		assert.True(t, effect.AutoFailStrSaves)
		assert.True(t, effect.AutoFailDexSaves)
		assert.True(t, effect.AttacksAgainstAdvantage)
	})

	t.Run("effects union across conditions", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		set.Apply(roundsCondition(conditions.Invisible, 3))
		set.Apply(roundsCondition(conditions.Poisoned, 3))
		effect := set.Effects()

		// Invisible grants advantage, poisoned imposes disadvantage; both
		// flags stay raised rather than cancelling.
		assert.True(t, effect.AttackAdvantage)
		assert.True(t, effect.AttackDisadvantage)
		assert.True(t, effect.AttacksAgainstDisadvantage)
		assert.ElementsMatch(t,
			[]conditions.Type{conditions.Invisible, conditions.Poisoned},
			effect.ActiveConditions)
	})

	t.Run("unconscious includes prone", func(t *testing.T) {
		set := conditions.NewSet("char-1")
		set.Apply(&conditions.Condition{
			Type:         conditions.Unconscious,
			DurationKind: conditions.DurationUntilDispelled,
		})
		effect := set.Effects()

		assert.True(t, effect.IsProne)
		assert.False(t, effect.CanAct)
		assert.False(t, effect.CanMove)
	})
}

func TestType_Validation(t *testing.T) {
	assert.Len(t, conditions.AllTypes(), 15)
	for _, ct := range conditions.AllTypes() {
		assert.True(t, ct.IsValid())
		assert.NotEmpty(t, ct.Description())
	}
	assert.False(t, conditions.Type("dazzled").IsValid())
}
