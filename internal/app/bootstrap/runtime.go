package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/healthcare-client/internal/config"
	"github.com/wolfman30/healthcare-client/internal/credentials"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildCredentialStore picks the token store named by cfg.TokenStore.
//
// The returned close func releases the backend and is never nil. A redis
// store that cannot be reached falls back to the file store so the client
// still starts.
func BuildCredentialStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (credentials.Store, func() error, error) {
	noop := func() error { return nil }
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.TokenStore {
	case TokenStoreMemory:
		logger.Info("token store: memory")
		return credentials.NewMemoryStore(), noop, nil
	case "", TokenStoreFile:
		logger.Info("token store: file", "path", cfg.TokenFile)
		return credentials.NewFileStore(cfg.TokenFile, cfg.TokenKey), noop, nil
	case TokenStoreRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			logger.Warn("redis token store unavailable; using file store", "path", cfg.TokenFile)
			return credentials.NewFileStore(cfg.TokenFile, cfg.TokenKey), noop, nil
		}
		logger.Info("token store: redis", "addr", cfg.RedisAddr, "prefix", cfg.RedisKeyPrefix)
		return credentials.NewRedisStore(client, cfg.RedisKeyPrefix, cfg.TokenKey), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown token store %q", cfg.TokenStore)
	}
}
