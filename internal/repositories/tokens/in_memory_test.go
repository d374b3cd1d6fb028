package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/rpg-table/internal/errors"
)

func TestInMemoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.Create(ctx, testToken("tok_1", "hash-1")))
	assert.True(t, errors.IsAlreadyExists(repo.Create(ctx, testToken("tok_1", "hash-9"))))

	got, err := repo.GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "tok_1", got.ID)

	// The stored copy is isolated from the returned one.
	got.Valid = false
	again, err := repo.Get(ctx, "tok_1")
	require.NoError(t, err)
	assert.True(t, again.Valid)

	consumed, err := repo.Consume(ctx, "hash-1", testNow)
	require.NoError(t, err)
	require.NotNil(t, consumed.UsedAt)

	_, err = repo.Consume(ctx, "hash-1", testNow)
	assert.True(t, errors.IsInvalidToken(err))
}

func TestInMemoryRepository_ConsumeRejections(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.Consume(ctx, "no-such-hash", testNow)
	assert.True(t, errors.IsInvalidToken(err))

	expired := testToken("tok_old", "hash-old")
	expired.ExpiresAt = testNow.Add(-time.Minute)
	require.NoError(t, repo.Create(ctx, expired))

	_, err = repo.Consume(ctx, "hash-old", testNow)
	assert.True(t, errors.IsInvalidToken(err))

	require.NoError(t, repo.Create(ctx, testToken("tok_1", "hash-1")))
	require.NoError(t, repo.Invalidate(ctx, "tok_1"))

	_, err = repo.Consume(ctx, "hash-1", testNow)
	assert.True(t, errors.IsInvalidToken(err))
}

func TestInMemoryRepository_InvalidatePair(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.Create(ctx, testToken("tok_1", "hash-1")))
	require.NoError(t, repo.Create(ctx, testToken("tok_2", "hash-2")))

	other := testToken("tok_other", "hash-other")
	other.SessionID = "sess-2"
	require.NoError(t, repo.Create(ctx, other))

	revoked, err := repo.InvalidatePair(ctx, "player-1", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	got, err := repo.Get(ctx, "tok_other")
	require.NoError(t, err)
	assert.True(t, got.Valid)
}

func TestInMemoryRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	expired := testToken("tok_old", "hash-old")
	expired.ExpiresAt = testNow.Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, testToken("tok_live", "hash-live")))

	deleted, err := repo.DeleteExpired(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = repo.GetByHash(ctx, "hash-old")
	assert.True(t, errors.IsNotFound(err))
	_, err = repo.Get(ctx, "tok_live")
	require.NoError(t, err)
}
