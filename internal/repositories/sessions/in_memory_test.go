package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-table/internal/domain/game"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

func inMemoryTestSession(id string) *game.Session {
	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	return &game.Session{
		ID:        id,
		Name:      "Test Table",
		CreatorID: "dm-1",
		Status:    game.SessionStatusPlanning,
		Members: map[string]*game.SessionMember{
			"dm-1": {PlayerID: "dm-1", Role: game.MemberRoleDM, JoinedAt: now, LastActive: now},
		},
		CreatedAt: now,
	}
}

func TestInMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	sess := inMemoryTestSession("sess_1")
	require.NoError(t, repo.Create(ctx, sess))

	err := repo.Create(ctx, sess)
	assert.True(t, errors.IsAlreadyExists(err))

	got, err := repo.Get(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "Test Table", got.Name)

	got.Name = "Renamed"
	got.Members["player-9"] = &game.SessionMember{PlayerID: "player-9", Role: game.MemberRolePlayer}

	// Mutating the returned copy must not touch the stored session.
	again, err := repo.Get(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "Test Table", again.Name)
	assert.Nil(t, again.GetMember("player-9"))

	got.ID = "sess_1"
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.Get(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.NotNil(t, updated.GetMember("player-9"))

	require.NoError(t, repo.Delete(ctx, "sess_1"))

	_, err = repo.Get(ctx, "sess_1")
	assert.True(t, errors.IsNotFound(err))

	assert.True(t, errors.IsNotFound(repo.Delete(ctx, "sess_1")))
	assert.True(t, errors.IsNotFound(repo.Update(ctx, sess)))
}

func TestInMemoryRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	first := inMemoryTestSession("sess_1")
	require.NoError(t, repo.Create(ctx, first))

	second := inMemoryTestSession("sess_2")
	second.Members["player-2"] = &game.SessionMember{PlayerID: "player-2", Role: game.MemberRolePlayer}
	require.NoError(t, repo.Create(ctx, second))

	ended := inMemoryTestSession("sess_3")
	ended.Status = game.SessionStatusEnded
	require.NoError(t, repo.Create(ctx, ended))

	byDM, err := repo.ListByPlayer(ctx, "dm-1")
	require.NoError(t, err)
	assert.Len(t, byDM, 3)

	byPlayer, err := repo.ListByPlayer(ctx, "player-2")
	require.NoError(t, err)
	require.Len(t, byPlayer, 1)
	assert.Equal(t, "sess_2", byPlayer[0].ID)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
