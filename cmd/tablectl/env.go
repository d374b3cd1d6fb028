package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-table/internal/config"
	charactersRepo "github.com/KirkDiggler/rpg-table/internal/repositories/characters"
	messagesRepo "github.com/KirkDiggler/rpg-table/internal/repositories/messages"
	presenceRepo "github.com/KirkDiggler/rpg-table/internal/repositories/presence"
	sessionsRepo "github.com/KirkDiggler/rpg-table/internal/repositories/sessions"
	tokensRepo "github.com/KirkDiggler/rpg-table/internal/repositories/tokens"
	"github.com/KirkDiggler/rpg-table/internal/services"
)

const commandTimeout = 10 * time.Second

// env is everything a subcommand needs: the wired service provider,
// direct repository access for read-only listings, and the Redis client
// to close on the way out.
type env struct {
	provider    *services.Provider
	messageRepo messagesRepo.Repository
	redisClient *redis.Client
}

func (e *env) Close() {
	if e.redisClient != nil {
		if err := e.redisClient.Close(); err != nil {
			log.Printf("Failed to close Redis client: %v", err)
		}
	}
}

func newEnv() (*env, error) {
	// Load .env file
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	providerConfig := &services.ProviderConfig{
		HeartbeatTimeout:   cfg.Presence.HeartbeatTimeout,
		OfflineTimeout:     cfg.Presence.OfflineTimeout,
		TokenTTL:           cfg.Reconnect.TokenTTL,
		SimultaneityWindow: cfg.Sync.SimultaneityWindow,
		RateLimitPerMinute: cfg.RateLimit.PerMinute,
		RateLimitBurst:     cfg.RateLimit.Burst,
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, parseErr := redis.ParseURL(cfg.Redis.URL)
		if parseErr != nil {
			log.Printf("Failed to parse REDIS_URL: %v", parseErr)
			log.Println("Falling back to in-memory repositories")
		} else {
			redisClient = redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(ctx).Err()
			cancel()
			if pingErr != nil {
				log.Printf("Failed to connect to Redis: %v", pingErr)
				log.Println("Falling back to in-memory repositories")
				_ = redisClient.Close()
				redisClient = nil
			} else {
				providerConfig.SessionRepository = sessionsRepo.NewRedisRepository(&sessionsRepo.RedisRepoConfig{Client: redisClient})
				providerConfig.CharacterRepository = charactersRepo.NewRedisRepository(&charactersRepo.RedisRepoConfig{Client: redisClient})
				providerConfig.PresenceRepository = presenceRepo.NewRedisRepository(&presenceRepo.RedisRepoConfig{Client: redisClient})
				providerConfig.TokenRepository = tokensRepo.NewRedisRepository(&tokensRepo.RedisRepoConfig{Client: redisClient})
				providerConfig.MessageRepository = messagesRepo.NewRedisRepository(&messagesRepo.RedisRepoConfig{Client: redisClient})
			}
		}
	} else {
		log.Println("No REDIS_URL found, using in-memory repositories")
	}

	if providerConfig.MessageRepository == nil {
		providerConfig.MessageRepository = messagesRepo.NewInMemoryRepository(nil)
	}

	return &env{
		provider:    services.NewProvider(providerConfig),
		messageRepo: providerConfig.MessageRepository,
		redisClient: redisClient,
	}, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}
