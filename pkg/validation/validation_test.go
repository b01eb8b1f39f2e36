package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.NoError(t, ValidateUsername("观众123"))

	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("   "))
	assert.Error(t, ValidateUsername("line\nbreak"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", MaxUsernameLength+1)))
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("hello"))
	// Limit counts runes, not bytes.
	assert.NoError(t, ValidateContent(strings.Repeat("弹", MaxContentRunes)))

	assert.Error(t, ValidateContent(""))
	assert.Error(t, ValidateContent(strings.Repeat("a", MaxContentRunes+1)))
}

func TestValidateReason(t *testing.T) {
	assert.NoError(t, ValidateReason("spam"))
	assert.Error(t, ValidateReason(""))
	assert.Error(t, ValidateReason(strings.Repeat("a", MaxReasonLength+1)))
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(1))
	assert.Error(t, ValidateDuration(0))
	assert.Error(t, ValidateDuration(-5))
}
