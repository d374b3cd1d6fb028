package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-table/internal/domain/combat"
)

func testCombatant(id string, initiative, dex, hp int) *combat.Combatant {
	return &combat.Combatant{
		CharacterID: id,
		Name:        id,
		Initiative:  initiative,
		Dexterity:   dex,
		CurrentHP:   hp,
		MaxHP:       hp,
		ArmorClass:  14,
	}
}

func TestNewEncounter_InitiativeOrder(t *testing.T) {
	t.Run("sorts highest first", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("low", 5, 10, 20),
			testCombatant("high", 18, 10, 20),
			testCombatant("mid", 12, 10, 20),
		}, time.Now())

		require.Len(t, enc.Combatants, 3)
		assert.Equal(t, "high", enc.Combatants[0].CharacterID)
		assert.Equal(t, "mid", enc.Combatants[1].CharacterID)
		assert.Equal(t, "low", enc.Combatants[2].CharacterID)
		assert.Equal(t, 1, enc.Round)
		assert.Equal(t, "high", enc.CurrentCombatant().CharacterID)
	})

	t.Run("ties break toward higher dexterity", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("slow", 15, 8, 20),
			testCombatant("quick", 15, 16, 20),
		}, time.Now())

		assert.Equal(t, "quick", enc.Combatants[0].CharacterID)
		assert.Equal(t, "slow", enc.Combatants[1].CharacterID)
	})

	t.Run("full ties keep input order", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("first", 15, 12, 20),
			testCombatant("second", 15, 12, 20),
		}, time.Now())

		assert.Equal(t, "first", enc.Combatants[0].CharacterID)
		assert.Equal(t, "second", enc.Combatants[1].CharacterID)
	})
}

func TestEncounter_AdvanceTurn(t *testing.T) {
	t.Run("cycles through the order", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("a", 20, 10, 20),
			testCombatant("b", 15, 10, 20),
			testCombatant("c", 10, 10, 20),
		}, time.Now())

		next, newRound := enc.AdvanceTurn()
		assert.Equal(t, "b", next.CharacterID)
		assert.False(t, newRound)

		next, newRound = enc.AdvanceTurn()
		assert.Equal(t, "c", next.CharacterID)
		assert.False(t, newRound)

		next, newRound = enc.AdvanceTurn()
		assert.Equal(t, "a", next.CharacterID)
		assert.True(t, newRound)
		assert.Equal(t, 2, enc.Round)
	})

	t.Run("skips defeated combatants", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("a", 20, 10, 20),
			testCombatant("b", 15, 10, 20),
			testCombatant("c", 10, 10, 20),
		}, time.Now())
		enc.FindCombatant("b").CurrentHP = 0

		next, _ := enc.AdvanceTurn()
		assert.Equal(t, "c", next.CharacterID)
	})

	t.Run("skipping past the end still advances the round", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("a", 20, 10, 20),
			testCombatant("b", 15, 10, 20),
		}, time.Now())
		enc.FindCombatant("b").CurrentHP = 0

		next, newRound := enc.AdvanceTurn()
		assert.Equal(t, "a", next.CharacterID)
		assert.True(t, newRound)
		assert.Equal(t, 2, enc.Round)
	})

	t.Run("resets the outgoing combatant's action economy", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("a", 20, 10, 20),
			testCombatant("b", 15, 10, 20),
		}, time.Now())

		acting := enc.CurrentCombatant()
		acting.HasActed = true
		acting.BonusActionUsed = true
		acting.ReactionUsed = true

		enc.AdvanceTurn()

		assert.False(t, acting.HasActed)
		assert.False(t, acting.BonusActionUsed)
		assert.False(t, acting.ReactionUsed)
	})
}

func TestCombatant_DamageAndHealing(t *testing.T) {
	t.Run("damage floors at zero", func(t *testing.T) {
		c := testCombatant("a", 10, 10, 12)

		taken := c.ApplyDamage(7)
		assert.Equal(t, 7, taken)
		assert.Equal(t, 5, c.CurrentHP)

		taken = c.ApplyDamage(50)
		assert.Equal(t, 5, taken)
		assert.Equal(t, 0, c.CurrentHP)
		assert.False(t, c.IsAlive())
	})

	t.Run("healing caps at max and revives", func(t *testing.T) {
		c := testCombatant("a", 10, 10, 20)
		c.CurrentHP = 0

		healed := c.Heal(8)
		assert.Equal(t, 8, healed)
		assert.True(t, c.IsAlive())

		healed = c.Heal(100)
		assert.Equal(t, 12, healed)
		assert.Equal(t, 20, c.CurrentHP)
	})

	t.Run("negative amounts are ignored", func(t *testing.T) {
		c := testCombatant("a", 10, 10, 20)

		assert.Equal(t, 0, c.ApplyDamage(-5))
		assert.Equal(t, 0, c.Heal(-5))
		assert.Equal(t, 20, c.CurrentHP)
	})
}

func TestEncounter_LastStanding(t *testing.T) {
	enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
		testCombatant("a", 20, 10, 20),
		testCombatant("b", 15, 10, 20),
	}, time.Now())

	assert.Equal(t, 2, enc.AliveCount())
	assert.Nil(t, enc.LastStanding())

	enc.FindCombatant("b").CurrentHP = 0
	assert.Equal(t, 1, enc.AliveCount())
	require.NotNil(t, enc.LastStanding())
	assert.Equal(t, "a", enc.LastStanding().CharacterID)

	enc.FindCombatant("a").CurrentHP = 0
	assert.Nil(t, enc.LastStanding())
}

func TestEncounter_Log(t *testing.T) {
	t.Run("entries are stamped with the current round", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("a", 20, 10, 20),
		}, time.Now())
		enc.Round = 3

		enc.AddLogEntry(&combat.LogEntry{Type: combat.LogEventDamage, ActorID: "a"})

		require.Len(t, enc.Log, 1)
		assert.Equal(t, 3, enc.Log[0].Round)
	})

	t.Run("retention is capped", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("a", 20, 10, 20),
		}, time.Now())

		for i := 0; i < 60; i++ {
			enc.AddLogEntry(&combat.LogEntry{Type: combat.LogEventDamage, Amount: i})
		}

		assert.Len(t, enc.Log, 50)
		assert.Equal(t, 10, enc.Log[0].Amount)
		assert.Equal(t, 59, enc.Log[len(enc.Log)-1].Amount)
	})

	t.Run("recent log returns the tail oldest first", func(t *testing.T) {
		enc := combat.NewEncounter("enc_1", "sess_1", []*combat.Combatant{
			testCombatant("a", 20, 10, 20),
		}, time.Now())
		for i := 0; i < 10; i++ {
			enc.AddLogEntry(&combat.LogEntry{Type: combat.LogEventHealing, Amount: i})
		}

		recent := enc.RecentLog(3)
		require.Len(t, recent, 3)
		assert.Equal(t, 7, recent[0].Amount)
		assert.Equal(t, 9, recent[2].Amount)

		all := enc.RecentLog(0)
		assert.Len(t, all, 10)
	})
}
