package messages

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-table/internal/domain/message"
	"github.com/KirkDiggler/rpg-table/internal/testutils"
)

func testMessage(sessionID string, n int) *message.Message {
	return &message.Message{
		ID:        fmt.Sprintf("msg_%d", n),
		SessionID: sessionID,
		PlayerID:  "player-1",
		Type:      message.TypeChat,
		Content:   fmt.Sprintf("message %d", n),
		CreatedAt: time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second),
	}
}

func TestRedisRepository_AppendAndRecent(t *testing.T) {
	ctx := context.Background()

	client, cleanup := testutils.CreateTestRedisClient(t)
	t.Cleanup(cleanup)

	repo := NewRedisRepository(&RedisRepoConfig{Client: client})

	for n := 1; n <= 3; n++ {
		require.NoError(t, repo.Append(ctx, testMessage("sess-1", n)))
	}

	// Oldest first
	got, err := repo.Recent(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "msg_1", got[0].ID)
	assert.Equal(t, "msg_3", got[2].ID)

	// Limit takes the newest entries
	got, err = repo.Recent(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "msg_2", got[0].ID)
	assert.Equal(t, "msg_3", got[1].ID)

	// Unknown session is just empty
	got, err = repo.Recent(ctx, "sess-9", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Input validation
	assert.Error(t, repo.Append(ctx, nil))
	assert.Error(t, repo.Append(ctx, &message.Message{ID: "msg_x"}))
}

func TestRedisRepository_BacklogCap(t *testing.T) {
	ctx := context.Background()

	client, cleanup := testutils.CreateTestRedisClient(t)
	t.Cleanup(cleanup)

	repo := NewRedisRepository(&RedisRepoConfig{Client: client, MaxPerSession: 5})

	for n := 1; n <= 8; n++ {
		require.NoError(t, repo.Append(ctx, testMessage("sess-1", n)))
	}

	got, err := repo.Recent(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "msg_4", got[0].ID)
	assert.Equal(t, "msg_8", got[4].ID)

	count, err := repo.CountBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestRedisRepository_DeleteSession(t *testing.T) {
	ctx := context.Background()

	client, cleanup := testutils.CreateTestRedisClient(t)
	t.Cleanup(cleanup)

	repo := NewRedisRepository(&RedisRepoConfig{Client: client})

	require.NoError(t, repo.Append(ctx, testMessage("sess-1", 1)))
	require.NoError(t, repo.DeleteSession(ctx, "sess-1"))

	count, err := repo.CountBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
