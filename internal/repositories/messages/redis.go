package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-table/internal/domain/message"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

const (
	messagesKey = "messages:%s"

	defaultMaxPerSession = 100
	defaultMessageTTL    = 7 * 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository.
type RedisRepoConfig struct {
	Client        goredis.UniversalClient
	MaxPerSession int
	MessageTTL    time.Duration
}

type redisRepository struct {
	client goredis.UniversalClient
	max    int
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed message repository.
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	max := cfg.MaxPerSession
	if max <= 0 {
		max = defaultMaxPerSession
	}
	ttl := cfg.MessageTTL
	if ttl == 0 {
		ttl = defaultMessageTTL
	}

	return &redisRepository{
		client: cfg.Client,
		max:    max,
		ttl:    ttl,
	}
}

func (r *redisRepository) Append(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return errors.InvalidArgument("message cannot be nil")
	}
	if msg.SessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to serialize message")
	}

	key := fmt.Sprintf(messagesKey, msg.SessionID)

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, int64(-r.max), -1)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to append message")
	}
	return nil
}

func (r *redisRepository) Recent(ctx context.Context, sessionID string, limit int) ([]*message.Message, error) {
	if sessionID == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	values, err := r.client.LRange(ctx, fmt.Sprintf(messagesKey, sessionID), start, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read messages")
	}

	msgs := make([]*message.Message, 0, len(values))
	for _, data := range values {
		var msg message.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		msgs = append(msgs, &msg)
	}
	return msgs, nil
}

func (r *redisRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, errors.InvalidArgument("session ID cannot be empty")
	}

	n, err := r.client.LLen(ctx, fmt.Sprintf(messagesKey, sessionID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count messages")
	}
	return int(n), nil
}

func (r *redisRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	if err := r.client.Del(ctx, fmt.Sprintf(messagesKey, sessionID)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session messages")
	}
	return nil
}
