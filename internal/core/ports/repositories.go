package ports

import (
	"context"
	"time"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
)

// MessageRepository persists chat and danmaku messages. Both backends must
// behave identically except for durability across restarts.
type MessageRepository interface {
	// Save appends a message and assigns its insertion sequence.
	Save(ctx context.Context, msg *domain.Message) error

	// List returns at most limit messages, newest first, in strictly
	// descending (Timestamp, Seq) order. When before is non-nil only
	// messages with Timestamp < before are returned.
	List(ctx context.Context, limit int, before *time.Time) ([]*domain.Message, error)
}

// UserRepository persists user records keyed by case-sensitive username.
type UserRepository interface {
	// GetByUsername returns the record for a username, or
	// domain.ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByIP returns the user most recently saved with the given IP
	// binding, or domain.ErrUserNotFound. With several usernames on one
	// IP the last saved binding wins.
	GetByIP(ctx context.Context, ip string) (*domain.User, error)

	// Save upserts the full record and refreshes UpdatedAt. Callers are
	// expected to read-modify-write; partial merge is not a repository
	// concern.
	Save(ctx context.Context, user *domain.User) error
}
