package ports

import (
	"context"
	"time"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
)

// DanmakuSubmission is a message pushed by the overlay HTTP API.
type DanmakuSubmission struct {
	ID     string
	Author string
	Time   *string
	Text   string
	Color  *string
	Type   *string
}

// ChatService is the synchronous request/response core shared by the
// WebSocket gateway and the HTTP surface. Validation and authorization
// failures are returned as *apperrors.AppError; anything else is a backend
// failure the transport reports generically.
type ChatService interface {
	// Login binds username to ip. Rejected when the IP is banned, the
	// user record is banned, or the username is already bound to a
	// different address.
	Login(ctx context.Context, username, ip string) error

	// GetMessages returns the most recent page of messages before the
	// given instant for a non-banned caller.
	GetMessages(ctx context.Context, ip string, before *time.Time) ([]*domain.Message, error)

	// SendMessage stores a chat message (Time=nil) and broadcasts it to
	// every live session, the sender included. Persist happens before
	// broadcast.
	SendMessage(ctx context.Context, content, sender string, color, msgType *string) (*domain.Message, error)

	// MuteUser sets the target's mute expiry to now plus durationUnits
	// scaled by the configured mute unit. Executor must be admin.
	MuteUser(ctx context.Context, executor, username string, durationUnits int) error

	// CheckAdminStatus confirms admin only for the currently connected
	// identity: the record by name and the record by caller IP must be
	// the same admin user.
	CheckAdminStatus(ctx context.Context, username, ip string) (bool, error)

	// BanUser sets the target's ban reason and broadcasts the ban to all
	// sessions. Executor must be admin.
	BanUser(ctx context.Context, executor, username, reason string) error

	// AddAdmin upserts the target as admin bound to ip. The shared-secret
	// check lives in the HTTP handler.
	AddAdmin(ctx context.Context, username, ip string) (*domain.User, error)

	// UnbanUser clears the target's ban reason.
	UnbanUser(ctx context.Context, username string) error

	// SubmitDanmaku stores an overlay-pushed message, resolving the
	// sender by the requester's IP when a binding exists, and broadcasts
	// it like SendMessage does.
	SubmitDanmaku(ctx context.Context, sub DanmakuSubmission, ip string) (*domain.Message, error)

	// ListDanmaku returns the overlay view of stored timed messages.
	ListDanmaku(ctx context.Context) ([]domain.DanmakuEntry, error)

	// CheckBan reports the ban status bound to an IP.
	CheckBan(ctx context.Context, ip string) (domain.BanStatus, error)
}

// Broadcaster fans an event out to every live session. Delivery is
// fire-and-forget; a slow or dead session must not block the others.
type Broadcaster interface {
	BroadcastNewMessage(msg *domain.Message)
	BroadcastBan(username, reason string)
}
