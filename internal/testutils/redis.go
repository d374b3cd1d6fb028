// Package testutils provides shared test helpers, including an
// in-memory Redis for repository tests.
package testutils

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// CreateTestRedisClient starts a miniredis instance and returns a
// client pointed at it plus a cleanup func.
func CreateTestRedisClient(t *testing.T) (redis.UniversalClient, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

// CreateTestMiniredis returns the raw miniredis handle for tests that
// need to fast-forward time or inspect keys directly.
func CreateTestMiniredis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return mr, client, cleanup
}
