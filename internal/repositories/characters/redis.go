package characters

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-table/internal/domain/character"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

const (
	characterKeyPrefix  = "character:"
	playerCharactersKey = "player:%s:characters"
)

// RedisRepoConfig holds configuration for the Redis repository.
type RedisRepoConfig struct {
	Client goredis.UniversalClient
}

type redisRepository struct {
	client goredis.UniversalClient
}

// NewRedisRepository creates a Redis-backed character repository.
// Characters have no TTL; they live until deleted.
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}
	return &redisRepository{client: cfg.Client}
}

func (r *redisRepository) Create(ctx context.Context, char *character.Character) error {
	if err := char.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(char)
	if err != nil {
		return errors.Wrap(err, "failed to serialize character")
	}

	ok, err := r.client.SetNX(ctx, characterKeyPrefix+char.ID, string(data), 0).Result()
	if err != nil {
		return errors.Wrap(err, "failed to create character")
	}
	if !ok {
		return errors.AlreadyExistsf("character with ID %s already exists", char.ID)
	}

	if char.PlayerID != "" {
		if err := r.client.SAdd(ctx, fmt.Sprintf(playerCharactersKey, char.PlayerID), char.ID).Err(); err != nil {
			return errors.Wrap(err, "failed to index character")
		}
	}
	return nil
}

func (r *redisRepository) Get(ctx context.Context, id string) (*character.Character, error) {
	if id == "" {
		return nil, errors.InvalidArgument("character ID cannot be empty")
	}

	data, err := r.client.Get(ctx, characterKeyPrefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, errors.NotFoundf("character not found: %s", id)
		}
		return nil, errors.Wrap(err, "failed to get character")
	}

	var char character.Character
	if err := json.Unmarshal(data, &char); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize character")
	}
	return &char, nil
}

func (r *redisRepository) GetBatch(ctx context.Context, ids []string) ([]*character.Character, error) {
	chars := make([]*character.Character, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			char, err := r.Get(ctx, id)
			if err != nil {
				return err
			}
			chars[i] = char
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return chars, nil
}

func (r *redisRepository) Update(ctx context.Context, char *character.Character) error {
	if err := char.Validate(); err != nil {
		return err
	}

	exists, err := r.client.Exists(ctx, characterKeyPrefix+char.ID).Result()
	if err != nil {
		return errors.Wrap(err, "failed to check character")
	}
	if exists == 0 {
		return errors.NotFoundf("character not found: %s", char.ID)
	}

	data, err := json.Marshal(char)
	if err != nil {
		return errors.Wrap(err, "failed to serialize character")
	}

	if err := r.client.Set(ctx, characterKeyPrefix+char.ID, string(data), 0).Err(); err != nil {
		return errors.Wrap(err, "failed to update character")
	}
	return nil
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	char, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, characterKeyPrefix+id)
	if char.PlayerID != "" {
		pipe.SRem(ctx, fmt.Sprintf(playerCharactersKey, char.PlayerID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to delete character")
	}
	return nil
}

func (r *redisRepository) ListByPlayer(ctx context.Context, playerID string) ([]*character.Character, error) {
	if playerID == "" {
		return nil, errors.InvalidArgument("player ID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, fmt.Sprintf(playerCharactersKey, playerID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list player characters")
	}

	return r.GetBatch(ctx, ids)
}
