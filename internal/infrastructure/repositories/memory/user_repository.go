package memory

import (
	"context"
	"sync"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/internal/core/ports"
	"github.com/Xiaomckedou233/XiaoLive/pkg/utils"
)

// MemoryUserRepository keeps user records in a map keyed by username.
type MemoryUserRepository struct {
	users map[string]*domain.User
	mu    sync.RWMutex
}

func NewMemoryUserRepository() ports.UserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) GetByIP(ctx context.Context, ip string) (*domain.User, error) {
	if ip == "" {
		return nil, domain.ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Several usernames may share an IP; the most recently saved binding
	// wins. Username is the tie-break so the choice stays deterministic.
	var found *domain.User
	for _, user := range r.users {
		if user.IP != ip {
			continue
		}
		if found == nil ||
			user.UpdatedAt.After(found.UpdatedAt) ||
			(user.UpdatedAt.Equal(found.UpdatedAt) && user.Username > found.Username) {
			found = user
		}
	}

	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	copied := *found
	return &copied, nil
}

func (r *MemoryUserRepository) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	stored.UpdatedAt = utils.Now()
	r.users[user.Username] = &stored

	user.UpdatedAt = stored.UpdatedAt
	return nil
}
