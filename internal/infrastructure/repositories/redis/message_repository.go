package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
)

// RedisMessageRepository stores message JSON blobs keyed by insertion
// sequence, indexed by a sorted set scored with the message timestamp in
// microseconds. For equal scores ZREVRANGEBYSCORE orders members by reverse
// lexicographic rank, so the zero-padded sequence member doubles as the
// tie-break.
type RedisMessageRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisMessageRepository(client *redis.Client) ports.MessageRepository {
	return &RedisMessageRepository{
		client: client,
		prefix: "xiaolive:",
	}
}

func (r *RedisMessageRepository) seqKey() string {
	return r.prefix + "message_seq"
}

func (r *RedisMessageRepository) indexKey() string {
	return r.prefix + "messages"
}

func (r *RedisMessageRepository) messageKey(member string) string {
	return r.prefix + "message:" + member
}

func seqMember(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}

func (r *RedisMessageRepository) Save(ctx context.Context, msg *domain.Message) error {
	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate message sequence: %w", err)
	}
	msg.Seq = uint64(seq)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	member := seqMember(msg.Seq)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.messageKey(member), data, 0)
	pipe.ZAdd(ctx, r.indexKey(), redis.Z{
		Score:  float64(msg.Timestamp.UnixMicro()),
		Member: member,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store message in Redis: %w", err)
	}

	return nil
}

func (r *RedisMessageRepository) List(ctx context.Context, limit int, before *time.Time) ([]*domain.Message, error) {
	max := "+inf"
	if before != nil {
		// Exclusive bound; index resolution is one microsecond.
		max = "(" + strconv.FormatInt(before.UnixMicro(), 10)
	}

	members, err := r.client.ZRevRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{
		Min:    "-inf",
		Max:    max,
		Offset: 0,
		Count:  int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query message index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		keys[i] = r.messageKey(member)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages from Redis: %w", err)
	}

	messages := make([]*domain.Message, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // index entry without a blob, skip
		}
		var msg domain.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}
