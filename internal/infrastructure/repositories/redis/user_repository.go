package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
	"github.com/Xiaomckedou233/XiaoLive/pkg/distributed"
	"github.com/Xiaomckedou233/XiaoLive/pkg/utils"
)

const (
	userLockTTL     = 5 * time.Second
	userLockTimeout = 2 * time.Second
)

// RedisUserRepository stores user JSON blobs keyed by username plus a
// per-IP sorted set scored by save time, which makes IP lookups resolve to
// the most recently saved binding.
type RedisUserRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisUserRepository(client *redis.Client) ports.UserRepository {
	return &RedisUserRepository{
		client: client,
		prefix: "xiaolive:",
	}
}

func (r *RedisUserRepository) userKey(username string) string {
	return r.prefix + "user:" + username
}

func (r *RedisUserRepository) ipKey(ip string) string {
	return r.prefix + "ip:" + ip
}

func (r *RedisUserRepository) lockKey(username string) string {
	return r.prefix + "lock:user:" + username
}

func (r *RedisUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *RedisUserRepository) GetByIP(ctx context.Context, ip string) (*domain.User, error) {
	if ip == "" {
		return nil, domain.ErrUserNotFound
	}

	usernames, err := r.client.ZRevRange(ctx, r.ipKey(ip), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query IP index: %w", err)
	}

	for _, username := range usernames {
		user, err := r.GetByUsername(ctx, username)
		if errors.Is(err, domain.ErrUserNotFound) {
			r.client.ZRem(ctx, r.ipKey(ip), username)
			continue
		}
		if err != nil {
			return nil, err
		}
		if user.IP != ip {
			// Stale index entry left by a re-login from elsewhere.
			r.client.ZRem(ctx, r.ipKey(ip), username)
			continue
		}
		return user, nil
	}

	return nil, domain.ErrUserNotFound
}

func (r *RedisUserRepository) Save(ctx context.Context, user *domain.User) error {
	lock := distributed.NewLock(r.client, r.lockKey(user.Username), userLockTTL)
	if err := lock.Acquire(ctx, userLockTimeout); err != nil {
		return err
	}
	defer lock.Release(ctx)

	previous, err := r.GetByUsername(ctx, user.Username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	stored := *user
	stored.UpdatedAt = utils.Now()

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.userKey(stored.Username), data, 0)
	if previous != nil && previous.IP != "" && previous.IP != stored.IP {
		pipe.ZRem(ctx, r.ipKey(previous.IP), stored.Username)
	}
	if stored.IP != "" {
		pipe.ZAdd(ctx, r.ipKey(stored.IP), redis.Z{
			Score:  float64(stored.UpdatedAt.UnixNano()),
			Member: stored.Username,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store user in Redis: %w", err)
	}

	user.UpdatedAt = stored.UpdatedAt
	return nil
}
