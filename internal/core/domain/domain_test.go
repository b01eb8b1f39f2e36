package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsDanmaku(t *testing.T) {
	chat := &Message{Content: "hi"}
	assert.False(t, chat.IsDanmaku())

	tm := "0"
	timed := &Message{Content: "hi", Time: &tm}
	assert.True(t, timed.IsDanmaku())
}

func TestToDanmakuDefaults(t *testing.T) {
	tm := "42.5"
	empty := ""
	msg := &Message{Content: "hi", Time: &tm, Color: &empty}

	entry := msg.ToDanmaku()
	assert.Equal(t, "hi", entry.Text)
	assert.Equal(t, "42.5", entry.Time)
	assert.Equal(t, DefaultDanmakuColor, entry.Color, "empty string falls back to the default")
	assert.Equal(t, DefaultDanmakuType, entry.Type)
}

func TestToDanmakuKeepsMetadata(t *testing.T) {
	tm, color, typ := "1", "255", "4"
	msg := &Message{Content: "hi", Time: &tm, Color: &color, Type: &typ}

	entry := msg.ToDanmaku()
	assert.Equal(t, "255", entry.Color)
	assert.Equal(t, "4", entry.Type)
}

func TestUserStatusHelpersNilSafe(t *testing.T) {
	var u *User
	assert.False(t, u.IsBanned())
	assert.False(t, u.IsMuted(time.Now()))
}

func TestIsMutedBoundary(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Minute)
	u := &User{Username: "alice", MutedUntil: &until}

	assert.True(t, u.IsMuted(now))
	assert.False(t, u.IsMuted(until), "mute ends exactly at the deadline")
	assert.False(t, u.IsMuted(until.Add(time.Second)))
}
