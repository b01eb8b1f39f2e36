package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateMessageID generates a unique message ID.
func GenerateMessageID() string {
	return uuid.NewString()
}

// GenerateSessionID generates a unique session ID for a gateway connection.
func GenerateSessionID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("session_%d_%s", timestamp, hex.EncodeToString(b))
}
