package content_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-table/internal/clients/catalog"
	mockcatalog "github.com/KirkDiggler/rpg-table/internal/clients/catalog/mock"
	"github.com/KirkDiggler/rpg-table/internal/errors"
	"github.com/KirkDiggler/rpg-table/internal/services/content"
)

func newSeededService(seed int64) content.Service {
	return content.NewService(&content.ServiceConfig{
		Catalog: catalog.NewInMemory(),
		Random:  rand.New(rand.NewSource(seed)),
	})
}

func TestGenerateEncounter(t *testing.T) {
	ctx := context.Background()

	t.Run("stays inside the difficulty band", func(t *testing.T) {
		svc := newSeededService(1)

		for i := 0; i < 20; i++ {
			enc, err := svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
				PartyLevel: 3,
				PartySize:  4,
				Difficulty: content.DifficultyMedium,
			})
			require.NoError(t, err)

			assert.Equal(t, 0.25, enc.MinCR)
			assert.Equal(t, 1.0, enc.MaxCR)
			require.NotEmpty(t, enc.Monsters)

			wantXP := 0
			for _, g := range enc.Monsters {
				assert.GreaterOrEqual(t, g.Template.ChallengeRating, enc.MinCR)
				assert.LessOrEqual(t, g.Template.ChallengeRating, enc.MaxCR)
				assert.GreaterOrEqual(t, g.Count, 1)
				wantXP += g.Template.XP * g.Count
			}
			assert.Equal(t, wantXP, enc.TotalXP)
			assert.GreaterOrEqual(t, enc.AdjustedXP, enc.TotalXP)
			assert.NotEmpty(t, enc.Description)
		}
	})

	t.Run("deadly at high level narrows to the big monsters", func(t *testing.T) {
		svc := newSeededService(2)

		enc, err := svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
			PartyLevel: 20,
			PartySize:  4,
			Difficulty: content.DifficultyDeadly,
		})
		require.NoError(t, err)

		// The built-in table tops out at the troll, so the band holds
		// exactly one candidate.
		require.Len(t, enc.Monsters, 1)
		assert.Equal(t, "troll", enc.Monsters[0].Template.Key)
		assert.Equal(t, 1, enc.Monsters[0].Count)
		assert.Equal(t, 1800, enc.TotalXP)
		assert.Equal(t, 1800, enc.AdjustedXP)
		assert.Equal(t, "Troll", enc.Description)
	})

	t.Run("same seed reproduces the same encounter", func(t *testing.T) {
		input := &content.GenerateEncounterInput{
			PartyLevel: 2,
			PartySize:  5,
			Difficulty: content.DifficultyHard,
		}

		first, err := newSeededService(42).GenerateEncounter(ctx, input)
		require.NoError(t, err)
		second, err := newSeededService(42).GenerateEncounter(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("small parties raise the adjusted XP", func(t *testing.T) {
		input := &content.GenerateEncounterInput{
			PartyLevel: 3,
			PartySize:  2,
			Difficulty: content.DifficultyMedium,
		}

		enc, err := newSeededService(3).GenerateEncounter(ctx, input)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, enc.AdjustedXP, enc.TotalXP)
	})

	t.Run("validation", func(t *testing.T) {
		svc := newSeededService(4)

		_, err := svc.GenerateEncounter(ctx, nil)
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
			PartyLevel: 0, PartySize: 4, Difficulty: content.DifficultyEasy,
		})
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
			PartyLevel: 21, PartySize: 4, Difficulty: content.DifficultyEasy,
		})
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
			PartyLevel: 3, PartySize: 0, Difficulty: content.DifficultyEasy,
		})
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
			PartyLevel: 3, PartySize: 4, Difficulty: "impossible",
		})
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("empty challenge band", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockCatalog := mockcatalog.NewMockClient(ctrl)
		mockCatalog.EXPECT().
			ListMonstersByChallengeRating(1.0, 3.0).
			Return(nil, nil)

		svc := content.NewService(&content.ServiceConfig{Catalog: mockCatalog})
		_, err := svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
			PartyLevel: 2, PartySize: 4, Difficulty: content.DifficultyDeadly,
		})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("catalog failure propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockCatalog := mockcatalog.NewMockClient(ctrl)
		mockCatalog.EXPECT().
			ListMonstersByChallengeRating(gomock.Any(), gomock.Any()).
			Return(nil, errors.Internal("catalog offline"))

		svc := content.NewService(&content.ServiceConfig{Catalog: mockCatalog})
		_, err := svc.GenerateEncounter(ctx, &content.GenerateEncounterInput{
			PartyLevel: 2, PartySize: 4, Difficulty: content.DifficultyEasy,
		})
		require.Error(t, err)
		assert.True(t, errors.IsInternal(err))
	})
}

func TestGenerateLoot(t *testing.T) {
	ctx := context.Background()

	t.Run("low challenge bracket", func(t *testing.T) {
		svc := newSeededService(1)
		allowed := map[string]bool{
			"healing potion": true, "torch (5)": true, "rations (3 days)": true,
		}

		for i := 0; i < 25; i++ {
			loot, err := svc.GenerateLoot(ctx, &content.GenerateLootInput{ChallengeRating: 0.5})
			require.NoError(t, err)

			assert.GreaterOrEqual(t, loot.Gold, 5)
			assert.LessOrEqual(t, loot.Gold, 30)
			for _, item := range loot.Items {
				assert.True(t, allowed[item], "unexpected item %q", item)
			}
			assert.Empty(t, loot.MagicItem, "magic items never drop below CR 1")
		}
	})

	t.Run("high challenge bracket", func(t *testing.T) {
		svc := newSeededService(2)

		loot, err := svc.GenerateLoot(ctx, &content.GenerateLootInput{ChallengeRating: 7})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, loot.Gold, 150)
		assert.LessOrEqual(t, loot.Gold, 500)
	})

	t.Run("same seed reproduces the same loot", func(t *testing.T) {
		roll := func() []*content.LootResult {
			svc := newSeededService(9)
			var out []*content.LootResult
			for _, cr := range []float64{0.5, 3, 12} {
				loot, err := svc.GenerateLoot(ctx, &content.GenerateLootInput{ChallengeRating: cr})
				require.NoError(t, err)
				out = append(out, loot)
			}
			return out
		}

		assert.Equal(t, roll(), roll())
	})

	t.Run("validation", func(t *testing.T) {
		svc := newSeededService(3)

		_, err := svc.GenerateLoot(ctx, nil)
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = svc.GenerateLoot(ctx, &content.GenerateLootInput{ChallengeRating: -1})
		assert.True(t, errors.IsInvalidArgument(err))
	})
}

func TestGenerateNPC(t *testing.T) {
	ctx := context.Background()

	t.Run("fills every field", func(t *testing.T) {
		svc := newSeededService(1)
		races := map[string]bool{"human": true, "elf": true, "dwarf": true, "halfling": true}

		for i := 0; i < 10; i++ {
			npc, err := svc.GenerateNPC(ctx)
			require.NoError(t, err)

			assert.True(t, races[npc.Race], "unexpected race %q", npc.Race)
			assert.Contains(t, npc.Name, " ", "name should be first and last")
			assert.False(t, strings.HasPrefix(npc.Name, " "))
			assert.NotEmpty(t, npc.Role)
			assert.NotEmpty(t, npc.Trait)
			assert.NotEmpty(t, npc.Flaw)
		}
	})

	t.Run("same seed reproduces the same NPC", func(t *testing.T) {
		first, err := newSeededService(11).GenerateNPC(ctx)
		require.NoError(t, err)
		second, err := newSeededService(11).GenerateNPC(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
