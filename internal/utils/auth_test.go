package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hashed)

	assert.True(t, CheckPassword(hashed, "password123"))
	assert.False(t, CheckPassword(hashed, "password124"))
	assert.False(t, CheckPassword("not-a-hash", "password123"))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("12345"))
	assert.NoError(t, ValidatePassword("123456"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail("userexample.com"))
	assert.Error(t, ValidateEmail("@example.com"))
	assert.Error(t, ValidateEmail("user@"))
	assert.Error(t, ValidateEmail("user@example"))
}

func TestValidateTaskTitle(t *testing.T) {
	title, err := ValidateTaskTitle("  Buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", title)

	// Interior whitespace is preserved verbatim.
	title, err = ValidateTaskTitle("a  b")
	require.NoError(t, err)
	assert.Equal(t, "a  b", title)

	_, err = ValidateTaskTitle("")
	assert.Error(t, err)
	_, err = ValidateTaskTitle("   ")
	assert.Error(t, err)

	_, err = ValidateTaskTitle(strings.Repeat("a", 256))
	assert.Error(t, err)
	_, err = ValidateTaskTitle(strings.Repeat("a", 255))
	assert.NoError(t, err)
}

func TestValidateTaskDescription(t *testing.T) {
	assert.NoError(t, ValidateTaskDescription(nil))

	ok := strings.Repeat("d", 1000)
	assert.NoError(t, ValidateTaskDescription(&ok))

	long := strings.Repeat("d", 1001)
	assert.Error(t, ValidateTaskDescription(&long))
}
