package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

const (
	// Each session gets one hash; fields are "<playerID>:<connectionID>".
	presenceKey = "presence:%s"

	// The whole hash expires if nobody heartbeats for a day.
	defaultPresenceTTL = 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository.
type RedisRepoConfig struct {
	Client      goredis.UniversalClient
	PresenceTTL time.Duration
}

type redisRepository struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed presence repository.
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.PresenceTTL
	if ttl == 0 {
		ttl = defaultPresenceTTL
	}

	return &redisRepository{
		client: cfg.Client,
		ttl:    ttl,
	}
}

func (r *redisRepository) Upsert(ctx context.Context, rec *presence.Record) error {
	if rec == nil {
		return errors.InvalidArgument("presence record cannot be nil")
	}
	if rec.SessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}
	if rec.PlayerID == "" || rec.ConnectionID == "" {
		return errors.InvalidArgument("player ID and connection ID cannot be empty")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to serialize presence record")
	}

	key := fmt.Sprintf(presenceKey, rec.SessionID)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, rec.Key(), string(data))
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to store presence record")
	}
	return nil
}

func (r *redisRepository) Get(ctx context.Context, sessionID, playerID, connectionID string) (*presence.Record, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	field := playerID + ":" + connectionID
	data, err := r.client.HGet(ctx, fmt.Sprintf(presenceKey, sessionID), field).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, errors.NotFoundf("no presence record for %s in session %s", field, sessionID)
		}
		return nil, errors.Wrap(err, "failed to get presence record")
	}

	var rec presence.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize presence record")
	}
	return &rec, nil
}

func (r *redisRepository) ListBySession(ctx context.Context, sessionID string) ([]*presence.Record, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	fields, err := r.client.HGetAll(ctx, fmt.Sprintf(presenceKey, sessionID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list session presence")
	}

	records := make([]*presence.Record, 0, len(fields))
	for _, data := range fields {
		var rec presence.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}

	// Hash iteration order is unspecified; keep output stable.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key() < records[j].Key()
	})
	return records, nil
}

func (r *redisRepository) Delete(ctx context.Context, sessionID, playerID, connectionID string) error {
	if sessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	field := playerID + ":" + connectionID
	removed, err := r.client.HDel(ctx, fmt.Sprintf(presenceKey, sessionID), field).Result()
	if err != nil {
		return errors.Wrap(err, "failed to delete presence record")
	}
	if removed == 0 {
		return errors.NotFoundf("no presence record for %s in session %s", field, sessionID)
	}
	return nil
}

func (r *redisRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	if err := r.client.Del(ctx, fmt.Sprintf(presenceKey, sessionID)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session presence")
	}
	return nil
}
