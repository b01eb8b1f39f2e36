package repositories

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/repositories/memory"
	redisrepo "github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/repositories/redis"
	"github.com/Xiaomckedou233/XiaoLive/pkg/config"
)

// RepositoryFactory selects the storage backend from configuration. When the
// Redis backend is requested but unreachable it falls back to memory with a
// warning, so the service still comes up.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Storage.Type == "redis",
		logger:   logger,
	}

	if factory.useRedis {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory storage",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis storage")
		}
	}

	if !factory.useRedis {
		logger.Info("using in-memory storage")
	}

	return factory, nil
}

// CreateMessageRepository creates a message repository for the selected backend.
func (f *RepositoryFactory) CreateMessageRepository() ports.MessageRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisMessageRepository(f.redisClient)
	}
	return memory.NewMemoryMessageRepository()
}

// CreateUserRepository creates a user repository for the selected backend.
func (f *RepositoryFactory) CreateUserRepository() ports.UserRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisUserRepository(f.redisClient)
	}
	return memory.NewMemoryUserRepository()
}

// Close closes the Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks storage backend health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
