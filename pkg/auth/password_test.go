package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{name: "seed password", password: "password123"},
		{name: "exactly minimum", password: "abcdefgh"},
		{name: "exactly maximum", password: strings.Repeat("a", MaxPasswordLen)},
		{name: "too short", password: "abc1234", want: ErrPasswordTooShort},
		{name: "empty", password: "", want: ErrPasswordTooShort},
		{name: "too long", password: strings.Repeat("a", MaxPasswordLen+1), want: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Contains(t, ErrPasswordTooShort.Error(), "at least 8")
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, ComparePassword(hash, "password123"))
	assert.Error(t, ComparePassword(hash, "password124"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("password123")
	require.NoError(t, err)
	b, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
