package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
)

// MemoryMessageRepository keeps messages in an append-only slice. Seq is the
// append index, which doubles as the tie-break for equal timestamps.
type MemoryMessageRepository struct {
	messages []*domain.Message
	nextSeq  uint64
	mu       sync.RWMutex
}

func NewMemoryMessageRepository() ports.MessageRepository {
	return &MemoryMessageRepository{nextSeq: 1}
}

func (r *MemoryMessageRepository) Save(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.Seq = r.nextSeq
	r.nextSeq++

	stored := *msg
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *MemoryMessageRepository) List(ctx context.Context, limit int, before *time.Time) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// The cursor compares at microsecond resolution, matching the Redis
	// backend's index so pagination behaves identically on both.
	var cutoff time.Time
	if before != nil {
		cutoff = before.Truncate(time.Microsecond)
	}

	var matched []*domain.Message
	for _, m := range r.messages {
		if before != nil && !m.Timestamp.Truncate(time.Microsecond).Before(cutoff) {
			continue
		}
		matched = append(matched, m)
	}

	// Newest first; insertion sequence breaks timestamp ties.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].Seq > matched[j].Seq
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*domain.Message, len(matched))
	for i, m := range matched {
		copied := *m
		out[i] = &copied
	}
	return out, nil
}
