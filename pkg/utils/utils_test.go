package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Now()
	parsed, err := ParseTimestamp(FormatTimestamp(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(parsed))
}

func TestParseTimestampAcceptsSecondPrecision(t *testing.T) {
	parsed, err := ParseTimestamp("2026-08-29T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestGenerateMessageIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateMessageID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestGenerateSessionIDShape(t *testing.T) {
	id := GenerateSessionID()
	assert.True(t, strings.HasPrefix(id, "session_"))
	assert.NotEqual(t, id, GenerateSessionID())
}
