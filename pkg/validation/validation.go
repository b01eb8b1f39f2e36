package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 50
	MaxContentRunes   = 500
	MaxReasonLength   = 200
)

// ValidateUsername validates a chat username. Usernames are case-sensitive
// display identities, so anything printable is allowed within limits.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username is too long (max %d bytes)", MaxUsernameLength)
	}
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username must not be blank")
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return fmt.Errorf("username contains control characters")
		}
	}
	return nil
}

// ValidateContent validates a message body.
func ValidateContent(content string) error {
	if content == "" {
		return fmt.Errorf("message content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return fmt.Errorf("message content is too long (max %d characters)", MaxContentRunes)
	}
	return nil
}

// ValidateReason validates a ban reason.
func ValidateReason(reason string) error {
	if reason == "" {
		return fmt.Errorf("reason is required")
	}
	if len(reason) > MaxReasonLength {
		return fmt.Errorf("reason is too long (max %d bytes)", MaxReasonLength)
	}
	return nil
}

// ValidateDuration validates a requested mute duration in units.
func ValidateDuration(units int) error {
	if units <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	return nil
}
