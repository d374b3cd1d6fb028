// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Redis     RedisConfig
	Presence  PresenceConfig
	Reconnect ReconnectConfig
	Sync      SyncConfig
	RateLimit RateLimitConfig
}

// RedisConfig holds Redis-specific configuration. An empty URL means
// the application runs on in-memory repositories instead.
type RedisConfig struct {
	URL string
}

// PresenceConfig holds the presence state machine timeouts
type PresenceConfig struct {
	HeartbeatTimeout time.Duration
	OfflineTimeout   time.Duration
}

// ReconnectConfig holds reconnection token settings
type ReconnectConfig struct {
	TokenTTL time.Duration
}

// SyncConfig holds conflict resolution settings
type SyncConfig struct {
	SimultaneityWindow time.Duration
}

// RateLimitConfig holds per-player command throttling settings
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Presence: PresenceConfig{
			HeartbeatTimeout: getEnvAsDurationOrDefault("PRESENCE_HEARTBEAT_TIMEOUT", 30*time.Second),
			OfflineTimeout:   getEnvAsDurationOrDefault("PRESENCE_OFFLINE_TIMEOUT", 5*time.Minute),
		},
		Reconnect: ReconnectConfig{
			TokenTTL: getEnvAsDurationOrDefault("RECONNECT_TOKEN_TTL", 24*time.Hour),
		},
		Sync: SyncConfig{
			SimultaneityWindow: getEnvAsDurationOrDefault("SYNC_SIMULTANEITY_WINDOW", time.Second),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
			Burst:     getEnvAsIntOrDefault("RATE_LIMIT_BURST", 10),
		},
	}

	// Validate relationships between fields
	if cfg.Presence.HeartbeatTimeout <= 0 {
		return nil, fmt.Errorf("PRESENCE_HEARTBEAT_TIMEOUT must be positive")
	}
	if cfg.Presence.OfflineTimeout <= cfg.Presence.HeartbeatTimeout {
		return nil, fmt.Errorf("PRESENCE_OFFLINE_TIMEOUT must be longer than PRESENCE_HEARTBEAT_TIMEOUT")
	}
	if cfg.Reconnect.TokenTTL <= 0 {
		return nil, fmt.Errorf("RECONNECT_TOKEN_TTL must be positive")
	}
	if cfg.Sync.SimultaneityWindow <= 0 {
		return nil, fmt.Errorf("SYNC_SIMULTANEITY_WINDOW must be positive")
	}
	if cfg.RateLimit.PerMinute < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	if cfg.RateLimit.Burst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}

	return cfg, nil
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
