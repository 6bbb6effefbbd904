package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestPasswordTooLong(t *testing.T) {
	// 40 runes, 80 bytes
	_, err := HashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestAccessToken(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)

	token, err := m.IssueAccess(42)
	require.NoError(t, err)

	id, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestAccessTokenExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Minute)
	m.now = func() time.Time { return issued }

	token, err := m.IssueAccess(1)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("a", time.Minute, time.Hour).IssueAccess(1)
	require.NoError(t, err)

	_, err = NewTokenManager("b", time.Minute, time.Hour).ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetTokenNotUsableForAccess(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)

	reset, err := m.IssueReset("ada@example.com")
	require.NoError(t, err)

	email, err := m.ParseReset(reset)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	_, err = m.ParseAccess(reset)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := m.IssueAccess(7)
	require.NoError(t, err)
	_, err = m.ParseReset(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
