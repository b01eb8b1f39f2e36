package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/domain"
	"github.com/Xiaomckedou233/XiaoLive/pkg/utils"
)

func TestMessageListNewestFirst(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, &domain.Message{
			ID:        string(rune('a' + i)),
			Content:   "m",
			Sender:    "alice",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := repo.List(ctx, 3, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestMessageListEqualTimestampsKeepInsertionOrder(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	ts := time.Now()

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Save(ctx, &domain.Message{
			ID: id, Content: "m", Sender: "alice", Timestamp: ts,
		}))
	}

	got, err := repo.List(ctx, 10, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "first", got[2].ID)
}

func TestMessageListBeforeIsExclusive(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, &domain.Message{
			ID:        string(rune('a' + i)),
			Content:   "m",
			Sender:    "alice",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	cursor := base.Add(time.Second) // timestamp of "b"
	got, err := repo.List(ctx, 10, &cursor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestMessageListCursorUsesMicrosecondResolution(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	base := time.Now().Truncate(time.Microsecond)

	// Two messages inside the same microsecond as the cursor, one clearly
	// older. The index stores microsecond scores, so the sub-microsecond
	// gap must not leak extra results.
	require.NoError(t, repo.Save(ctx, &domain.Message{
		ID: "older", Content: "m", Sender: "alice", Timestamp: base.Add(-time.Millisecond),
	}))
	require.NoError(t, repo.Save(ctx, &domain.Message{
		ID: "same-micro", Content: "m", Sender: "alice", Timestamp: base.Add(100 * time.Nanosecond),
	}))

	cursor := base.Add(200 * time.Nanosecond)
	got, err := repo.List(ctx, 10, &cursor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "older", got[0].ID)
}

func TestMessageListReturnsCopies(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Message{
		ID: "x", Content: "orig", Sender: "alice", Timestamp: time.Now(),
	}))

	got, err := repo.List(ctx, 1, nil)
	require.NoError(t, err)
	got[0].Content = "mutated"

	again, err := repo.List(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "orig", again[0].Content)
}

func TestUserSaveAndGetByUsername(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.User{Username: "alice", IP: "1.1.1.1"}))

	user, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1", user.IP)
	assert.False(t, user.UpdatedAt.IsZero())

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserSaveUpsertsFullRecord(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	reason := "spam"
	require.NoError(t, repo.Save(ctx, &domain.User{
		Username:     "alice",
		IP:           "1.1.1.1",
		IsAdmin:      true,
		BannedReason: &reason,
	}))

	// Full-record upsert: a save without the reason clears it.
	require.NoError(t, repo.Save(ctx, &domain.User{
		Username: "alice",
		IP:       "1.1.1.1",
		IsAdmin:  true,
	}))

	user, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, user.BannedReason)
	assert.True(t, user.IsAdmin)
}

func TestUserGetByIPPrefersMostRecentBinding(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	base := time.Now()
	tick := 0
	utils.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	defer func() { utils.Now = time.Now }()

	require.NoError(t, repo.Save(ctx, &domain.User{Username: "old", IP: "1.1.1.1"}))
	require.NoError(t, repo.Save(ctx, &domain.User{Username: "new", IP: "1.1.1.1"}))

	user, err := repo.GetByIP(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "new", user.Username)

	_, err = repo.GetByIP(ctx, "9.9.9.9")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserGetByIPEmptyAddress(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.User{Username: "unbound"}))

	_, err := repo.GetByIP(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
