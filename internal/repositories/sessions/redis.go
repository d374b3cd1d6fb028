package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-table/internal/domain/game"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

const (
	sessionKeyPrefix  = "session:"
	playerSessionsKey = "player:%s:sessions"
	activeSessionsKey = "sessions:active"

	// Sessions linger for a week after their last write.
	defaultSessionTTL = 7 * 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository.
type RedisRepoConfig struct {
	Client     goredis.UniversalClient
	SessionTTL time.Duration
}

type redisRepository struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed session repository.
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = defaultSessionTTL
	}

	return &redisRepository{
		client: cfg.Client,
		ttl:    ttl,
	}
}

func (r *redisRepository) Create(ctx context.Context, sess *game.Session) error {
	if sess == nil {
		return errors.InvalidArgument("session cannot be nil")
	}
	if sess.ID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to serialize session")
	}

	ok, err := r.client.SetNX(ctx, sessionKeyPrefix+sess.ID, string(data), r.ttl).Result()
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	if !ok {
		return errors.AlreadyExistsf("session with ID %s already exists", sess.ID)
	}

	pipe := r.client.TxPipeline()
	if sess.IsActive() {
		pipe.SAdd(ctx, activeSessionsKey, sess.ID)
	}
	for playerID := range sess.Members {
		pipe.SAdd(ctx, fmt.Sprintf(playerSessionsKey, playerID), sess.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to index session")
	}

	return nil
}

func (r *redisRepository) Get(ctx context.Context, id string) (*game.Session, error) {
	if id == "" {
		return nil, errors.InvalidArgument("session ID cannot be empty")
	}

	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, errors.NotFoundf("session not found: %s", id)
		}
		return nil, errors.Wrap(err, "failed to get session")
	}

	var sess game.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize session")
	}
	return &sess, nil
}

func (r *redisRepository) Update(ctx context.Context, sess *game.Session) error {
	if sess == nil {
		return errors.InvalidArgument("session cannot be nil")
	}
	if sess.ID == "" {
		return errors.InvalidArgument("session ID cannot be empty")
	}

	existing, err := r.Get(ctx, sess.ID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "failed to serialize session")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.ID, string(data), r.ttl)

	if sess.IsActive() {
		pipe.SAdd(ctx, activeSessionsKey, sess.ID)
	} else {
		pipe.SRem(ctx, activeSessionsKey, sess.ID)
	}

	for playerID := range sess.Members {
		if existing.GetMember(playerID) == nil {
			pipe.SAdd(ctx, fmt.Sprintf(playerSessionsKey, playerID), sess.ID)
		}
	}
	for playerID := range existing.Members {
		if sess.GetMember(playerID) == nil {
			pipe.SRem(ctx, fmt.Sprintf(playerSessionsKey, playerID), sess.ID)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to update session")
	}
	return nil
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	sess, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.SRem(ctx, activeSessionsKey, id)
	for playerID := range sess.Members {
		pipe.SRem(ctx, fmt.Sprintf(playerSessionsKey, playerID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}

func (r *redisRepository) ListByPlayer(ctx context.Context, playerID string) ([]*game.Session, error) {
	if playerID == "" {
		return nil, errors.InvalidArgument("player ID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, fmt.Sprintf(playerSessionsKey, playerID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list player sessions")
	}

	slots := make([]*game.Session, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			sess, err := r.Get(ctx, id)
			if err != nil {
				// A stale index entry whose key expired is skipped,
				// not an error.
				if errors.IsNotFound(err) {
					return nil
				}
				return errors.Wrapf(err, "failed to get session %s", id)
			}
			slots[i] = sess
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sessions := make([]*game.Session, 0, len(slots))
	for _, sess := range slots {
		if sess != nil {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

func (r *redisRepository) ListActive(ctx context.Context) ([]*game.Session, error) {
	ids, err := r.client.SMembers(ctx, activeSessionsKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active sessions")
	}
	if len(ids) == 0 {
		return []*game.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKeyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch active sessions")
	}

	// Expired sessions leave stale index entries; skip them here.
	sessions := make([]*game.Session, 0, len(values))
	for _, val := range values {
		data, ok := val.(string)
		if !ok {
			continue
		}
		var sess game.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			continue
		}
		sessions = append(sessions, &sess)
	}
	return sessions, nil
}
