package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-table/internal/domain/reconnect"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

const (
	tokenKeyPrefix = "recon_token:"
	tokenHashKey   = "recon_token_hash:%s"
	tokenUsedKey   = "recon_token_used:%s"
	tokenPairKey   = "recon_tokens:%s:%s"
	tokenIndexKey  = "recon_tokens:index"

	// Tokens outlive their expiry so a late redeem attempt gets told
	// the token expired rather than that it never existed.
	defaultTokenRetention = 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository.
type RedisRepoConfig struct {
	Client    goredis.UniversalClient
	Retention time.Duration
}

type redisRepository struct {
	client    goredis.UniversalClient
	retention time.Duration
}

// NewRedisRepository creates a Redis-backed token repository.
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	retention := cfg.Retention
	if retention == 0 {
		retention = defaultTokenRetention
	}

	return &redisRepository{
		client:    cfg.Client,
		retention: retention,
	}
}

func validateToken(tok *reconnect.Token) error {
	if tok == nil {
		return errors.InvalidArgument("token cannot be nil")
	}
	if tok.ID == "" {
		return errors.InvalidArgument("token ID cannot be empty")
	}
	if tok.TokenHash == "" {
		return errors.InvalidArgument("token hash cannot be empty")
	}
	if tok.PlayerID == "" || tok.SessionID == "" {
		return errors.InvalidArgument("player ID and session ID cannot be empty")
	}
	return nil
}

func (r *redisRepository) Create(ctx context.Context, tok *reconnect.Token) error {
	if err := validateToken(tok); err != nil {
		return err
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "failed to serialize token")
	}

	ok, err := r.client.SetNX(ctx, tokenKeyPrefix+tok.ID, string(data), r.retention).Result()
	if err != nil {
		return errors.Wrap(err, "failed to create token")
	}
	if !ok {
		return errors.AlreadyExistsf("token with ID %s already exists", tok.ID)
	}

	pairKey := fmt.Sprintf(tokenPairKey, tok.PlayerID, tok.SessionID)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(tokenHashKey, tok.TokenHash), tok.ID, r.retention)
	pipe.SAdd(ctx, pairKey, tok.ID)
	pipe.Expire(ctx, pairKey, r.retention)
	pipe.SAdd(ctx, tokenIndexKey, tok.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to index token")
	}

	return nil
}

func (r *redisRepository) Get(ctx context.Context, id string) (*reconnect.Token, error) {
	if id == "" {
		return nil, errors.InvalidArgument("token ID cannot be empty")
	}

	data, err := r.client.Get(ctx, tokenKeyPrefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, errors.NotFoundf("token not found: %s", id)
		}
		return nil, errors.Wrap(err, "failed to get token")
	}

	var tok reconnect.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize token")
	}
	return &tok, nil
}

func (r *redisRepository) GetByHash(ctx context.Context, hash string) (*reconnect.Token, error) {
	if hash == "" {
		return nil, errors.InvalidArgument("token hash cannot be empty")
	}

	id, err := r.client.Get(ctx, fmt.Sprintf(tokenHashKey, hash)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, errors.NotFound("no token matches that hash")
		}
		return nil, errors.Wrap(err, "failed to look up token hash")
	}

	return r.Get(ctx, id)
}

func (r *redisRepository) Consume(ctx context.Context, hash string, now time.Time) (*reconnect.Token, error) {
	tok, err := r.GetByHash(ctx, hash)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidToken("token is not recognized")
		}
		return nil, err
	}

	if !tok.Valid {
		return nil, errors.InvalidToken("token has been revoked")
	}
	if tok.UsedAt != nil {
		return nil, errors.InvalidToken("token has already been used")
	}
	if tok.IsExpired(now) {
		return nil, errors.InvalidToken("token has expired")
	}

	// The SetNX gate makes redemption one-shot: of two racing callers
	// that both passed the checks above, only one claims the gate.
	won, err := r.client.SetNX(ctx, fmt.Sprintf(tokenUsedKey, tok.ID), "1", r.retention).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to claim token")
	}
	if !won {
		return nil, errors.InvalidToken("token has already been used")
	}

	used := now
	tok.UsedAt = &used

	data, err := json.Marshal(tok)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize token")
	}
	if err := r.client.Set(ctx, tokenKeyPrefix+tok.ID, string(data), goredis.KeepTTL).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to mark token used")
	}

	return tok, nil
}

func (r *redisRepository) Invalidate(ctx context.Context, id string) error {
	tok, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !tok.Valid {
		return nil
	}

	tok.Valid = false
	data, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "failed to serialize token")
	}
	if err := r.client.Set(ctx, tokenKeyPrefix+id, string(data), goredis.KeepTTL).Err(); err != nil {
		return errors.Wrap(err, "failed to invalidate token")
	}
	return nil
}

func (r *redisRepository) InvalidatePair(ctx context.Context, playerID, sessionID string) (int, error) {
	if playerID == "" || sessionID == "" {
		return 0, errors.InvalidArgument("player ID and session ID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, fmt.Sprintf(tokenPairKey, playerID, sessionID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to list pair tokens")
	}

	pipe := r.client.TxPipeline()
	revoked := 0
	for _, id := range ids {
		tok, err := r.Get(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return 0, err
		}
		if !tok.Valid || tok.UsedAt != nil {
			continue
		}

		tok.Valid = false
		data, err := json.Marshal(tok)
		if err != nil {
			return 0, errors.Wrap(err, "failed to serialize token")
		}
		pipe.Set(ctx, tokenKeyPrefix+id, string(data), goredis.KeepTTL)
		revoked++
	}

	if revoked > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, errors.Wrap(err, "failed to revoke pair tokens")
		}
	}
	return revoked, nil
}

func (r *redisRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := r.client.SMembers(ctx, tokenIndexKey).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to list tokens")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	toks := make([]*reconnect.Token, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			tok, err := r.Get(gctx, id)
			if err != nil {
				// A stale index entry whose key already expired.
				if errors.IsNotFound(err) {
					return nil
				}
				return err
			}
			toks[i] = tok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	pipe := r.client.TxPipeline()
	deleted := 0
	queued := false
	for i, tok := range toks {
		if tok == nil {
			pipe.SRem(ctx, tokenIndexKey, ids[i])
			queued = true
			continue
		}
		if !tok.IsExpired(now) {
			continue
		}

		pipe.Del(ctx, tokenKeyPrefix+tok.ID)
		pipe.Del(ctx, fmt.Sprintf(tokenHashKey, tok.TokenHash))
		pipe.Del(ctx, fmt.Sprintf(tokenUsedKey, tok.ID))
		pipe.SRem(ctx, fmt.Sprintf(tokenPairKey, tok.PlayerID, tok.SessionID), tok.ID)
		pipe.SRem(ctx, tokenIndexKey, tok.ID)
		deleted++
		queued = true
	}

	if queued {
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, errors.Wrap(err, "failed to delete expired tokens")
		}
	}
	return deleted, nil
}
