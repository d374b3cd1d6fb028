package turnqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockclock "github.com/KirkDiggler/rpg-table/internal/clock/mock"
	"github.com/KirkDiggler/rpg-table/internal/domain/character"
	"github.com/KirkDiggler/rpg-table/internal/domain/combat"
	"github.com/KirkDiggler/rpg-table/internal/domain/turn"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	"github.com/KirkDiggler/rpg-table/internal/idgen"
	"github.com/KirkDiggler/rpg-table/internal/services/turnqueue"
)

func newTestService() turnqueue.Service {
	return turnqueue.NewService(&turnqueue.ServiceConfig{
		IDGenerator: idgen.NewSequential("queue"),
		Clock:       mockclock.NewManualClock(time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)),
	})
}

func testParty() []*character.Character {
	fighter := &character.Character{
		ID: "fighter", Name: "Thorin", Level: 3,
		Abilities: character.AbilityScores{Dexterity: 14},
		CurrentHP: 28, MaxHP: 28, ArmorClass: 16,
	}
	rogue := &character.Character{
		ID: "rogue", Name: "Shadow", Level: 3,
		Abilities: character.AbilityScores{Dexterity: 18},
		CurrentHP: 20, MaxHP: 20, ArmorClass: 14,
	}
	cleric := &character.Character{
		ID: "cleric", Name: "Lightbringer", Level: 3,
		Abilities: character.AbilityScores{Dexterity: 10},
		CurrentHP: 24, MaxHP: 24, ArmorClass: 18,
	}
	return []*character.Character{fighter, rogue, cleric}
}

func startQueue(t *testing.T, svc turnqueue.Service) *turn.Queue {
	t.Helper()

	output, err := svc.StartTurnQueue(context.Background(), &turnqueue.StartTurnQueueInput{
		SessionID:  "sess_1",
		Characters: testParty(),
	})
	require.NoError(t, err)
	return output.Queue
}

func TestService_StartTurnQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by innate initiative modifier", func(t *testing.T) {
		svc := newTestService()
		q := startQueue(t, svc)

		assert.Equal(t, "queue_1", q.ID)
		require.Len(t, q.Turns, 3)
		assert.Equal(t, "rogue", q.Turns[0].CharacterID)
		assert.Equal(t, "fighter", q.Turns[1].CharacterID)
		assert.Equal(t, "cleric", q.Turns[2].CharacterID)

		assert.Equal(t, turn.StatusActive, q.Turns[0].Status)
		assert.Equal(t, turn.StatusWaiting, q.Turns[1].Status)
		assert.Equal(t, turn.StatusWaiting, q.Turns[2].Status)
		assert.Equal(t, 1, q.Round)
	})

	t.Run("mirrors a combat encounter's initiative order", func(t *testing.T) {
		svc := newTestService()
		enc := combat.NewEncounter("enc_9", "sess_1", []*combat.Combatant{
			{CharacterID: "cleric", Name: "Lightbringer", Initiative: 21, CurrentHP: 24, MaxHP: 24},
			{CharacterID: "rogue", Name: "Shadow", Initiative: 14, CurrentHP: 20, MaxHP: 20},
		}, time.Now())

		output, err := svc.StartTurnQueue(ctx, &turnqueue.StartTurnQueueInput{
			SessionID: "sess_1",
			Encounter: enc,
		})
		require.NoError(t, err)

		q := output.Queue
		assert.Equal(t, "enc_9", q.EncounterID)
		require.Len(t, q.Turns, 2)
		assert.Equal(t, "cleric", q.Turns[0].CharacterID)
		assert.Equal(t, 21, q.Turns[0].Initiative)
		assert.Equal(t, "rogue", q.Turns[1].CharacterID)
	})

	t.Run("one queue per session", func(t *testing.T) {
		svc := newTestService()
		startQueue(t, svc)

		_, err := svc.StartTurnQueue(ctx, &turnqueue.StartTurnQueueInput{
			SessionID:  "sess_1",
			Characters: testParty(),
		})
		assert.True(t, errors.IsAlreadyExists(err))
	})

	t.Run("validates input", func(t *testing.T) {
		svc := newTestService()

		_, err := svc.StartTurnQueue(ctx, nil)
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.StartTurnQueue(ctx, &turnqueue.StartTurnQueueInput{Characters: testParty()})
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.StartTurnQueue(ctx, &turnqueue.StartTurnQueueInput{SessionID: "sess_1"})
		assert.True(t, errors.IsInvalidArgument(err))
	})
}

func TestService_AdvanceTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("n advances complete one full round", func(t *testing.T) {
		svc := newTestService()
		q := startQueue(t, svc)

		for i := 0; i < len(q.Turns)-1; i++ {
			output, err := svc.AdvanceTurn(ctx, "sess_1")
			require.NoError(t, err)
			assert.False(t, output.NewRound)
			assert.Equal(t, 1, output.Round)
		}

		output, err := svc.AdvanceTurn(ctx, "sess_1")
		require.NoError(t, err)
		assert.True(t, output.NewRound)
		assert.Equal(t, 2, output.Round)
		assert.Equal(t, "rogue", output.Active.CharacterID)
	})

	t.Run("fails without an active turn", func(t *testing.T) {
		svc := newTestService()
		q := startQueue(t, svc)

		// Simulate corrupted state: nothing active.
		q.Turns[q.CurrentIndex].Status = turn.StatusCompleted

		_, err := svc.AdvanceTurn(ctx, "sess_1")
		require.Error(t, err)
		assert.True(t, errors.IsInvariantViolation(err))
	})

	t.Run("no queue", func(t *testing.T) {
		svc := newTestService()

		_, err := svc.AdvanceTurn(ctx, "sess_1")
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestService_ReadyChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("toggles readiness without advancing", func(t *testing.T) {
		svc := newTestService()
		startQueue(t, svc)

		updated, err := svc.SetPlayerReady(ctx, &turnqueue.SetPlayerReadyInput{
			SessionID:   "sess_1",
			CharacterID: "fighter",
			Ready:       true,
		})
		require.NoError(t, err)
		assert.Equal(t, turn.StatusReady, updated.Status)

		q, err := svc.GetQueue(ctx, "sess_1")
		require.NoError(t, err)
		assert.Equal(t, "rogue", q.ActiveTurn().CharacterID, "readiness must not advance the turn")

		updated, err = svc.SetPlayerReady(ctx, &turnqueue.SetPlayerReadyInput{
			SessionID:   "sess_1",
			CharacterID: "fighter",
			Ready:       false,
		})
		require.NoError(t, err)
		assert.Equal(t, turn.StatusWaiting, updated.Status)
	})

	t.Run("readiness only applies to waiting turns", func(t *testing.T) {
		svc := newTestService()
		startQueue(t, svc)

		_, err := svc.SetPlayerReady(ctx, &turnqueue.SetPlayerReadyInput{
			SessionID:   "sess_1",
			CharacterID: "rogue",
			Ready:       true,
		})
		assert.True(t, errors.IsInvalidArgument(err), "rogue holds the active turn")

		_, err = svc.SetPlayerReady(ctx, &turnqueue.SetPlayerReadyInput{
			SessionID:   "sess_1",
			CharacterID: "nobody",
			Ready:       true,
		})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("check all ready", func(t *testing.T) {
		svc := newTestService()
		startQueue(t, svc)

		check, err := svc.CheckAllReady(ctx, "sess_1")
		require.NoError(t, err)
		assert.False(t, check.AllReady)
		assert.Equal(t, 1, check.Ready, "the active turn counts")
		assert.Equal(t, 3, check.Total)

		for _, id := range []string{"fighter", "cleric"} {
			_, err = svc.SetPlayerReady(ctx, &turnqueue.SetPlayerReadyInput{
				SessionID:   "sess_1",
				CharacterID: id,
				Ready:       true,
			})
			require.NoError(t, err)
		}

		check, err = svc.CheckAllReady(ctx, "sess_1")
		require.NoError(t, err)
		assert.True(t, check.AllReady)
		assert.Equal(t, 3, check.Ready)
	})
}

func TestService_TurnHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	startQueue(t, svc)

	record, err := svc.RecordAction(ctx, &turnqueue.RecordActionInput{
		SessionID:   "sess_1",
		CharacterID: "rogue",
		ActionType:  "attack",
		Details:     "shortsword against the goblin",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, record.Round)
	assert.False(t, record.Timestamp.IsZero())

	_, err = svc.AdvanceTurn(ctx, "sess_1")
	require.NoError(t, err)
	_, err = svc.RecordAction(ctx, &turnqueue.RecordActionInput{
		SessionID:   "sess_1",
		CharacterID: "fighter",
		ActionType:  "dodge",
	})
	require.NoError(t, err)

	history, err := svc.GetTurnHistory(ctx, &turnqueue.GetTurnHistoryInput{SessionID: "sess_1"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "rogue", history[0].CharacterID)
	assert.Equal(t, "fighter", history[1].CharacterID)

	limited, err := svc.GetTurnHistory(ctx, &turnqueue.GetTurnHistoryInput{SessionID: "sess_1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "fighter", limited[0].CharacterID)

	t.Run("rejects unknown characters and empty actions", func(t *testing.T) {
		_, err := svc.RecordAction(ctx, &turnqueue.RecordActionInput{
			SessionID:   "sess_1",
			CharacterID: "nobody",
			ActionType:  "attack",
		})
		assert.True(t, errors.IsNotFound(err))

		_, err = svc.RecordAction(ctx, &turnqueue.RecordActionInput{
			SessionID:   "sess_1",
			CharacterID: "rogue",
		})
		assert.True(t, errors.IsInvalidArgument(err))
	})
}

func TestService_SkipTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("skips the active turn and advances", func(t *testing.T) {
		svc := newTestService()
		startQueue(t, svc)

		output, err := svc.SkipTurn(ctx, &turnqueue.SkipTurnInput{
			SessionID:   "sess_1",
			CharacterID: "rogue",
		})
		require.NoError(t, err)
		assert.Equal(t, "fighter", output.Active.CharacterID)

		q, err := svc.GetQueue(ctx, "sess_1")
		require.NoError(t, err)
		assert.Equal(t, turn.StatusSkipped, q.FindTurn("rogue").Status)
	})

	t.Run("only the active turn can be skipped", func(t *testing.T) {
		svc := newTestService()
		startQueue(t, svc)

		_, err := svc.SkipTurn(ctx, &turnqueue.SkipTurnInput{
			SessionID:   "sess_1",
			CharacterID: "cleric",
		})
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.SkipTurn(ctx, &turnqueue.SkipTurnInput{
			SessionID:   "sess_1",
			CharacterID: "nobody",
		})
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestService_EndTurnQueue(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	startQueue(t, svc)

	require.NoError(t, svc.EndTurnQueue(ctx, "sess_1"))

	_, err := svc.GetQueue(ctx, "sess_1")
	assert.True(t, errors.IsNotFound(err))

	err = svc.EndTurnQueue(ctx, "sess_1")
	assert.True(t, errors.IsNotFound(err))
}

func TestService_QueueSessionIndependence(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	for _, sessionID := range []string{"sess_1", "sess_2"} {
		_, err := svc.StartTurnQueue(ctx, &turnqueue.StartTurnQueueInput{
			SessionID:  sessionID,
			Characters: testParty(),
		})
		require.NoError(t, err)
	}

	_, err := svc.AdvanceTurn(ctx, "sess_1")
	require.NoError(t, err)

	q2, err := svc.GetQueue(ctx, "sess_2")
	require.NoError(t, err)
	assert.Equal(t, "rogue", q2.ActiveTurn().CharacterID)

	ids, err := svc.ActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sess_1", "sess_2"}, ids)
}
