package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestEditTokenRoundTrip(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := svc.IssueEditToken(42)
	require.NoError(t, err)

	claims, err := svc.AuthorizeCard(token, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.CardID)
	assert.Equal(t, TokenTypeEdit, claims.TokenType)

	_, err = svc.AuthorizeCard(token, 43)
	assert.ErrorIs(t, err, ErrTokenCardMismatch)
}

func TestEditTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Minute)
	require.NoError(t, err)
	other, err := NewTokenService("ffffffffffffffffffffffffffffffff", time.Minute)
	require.NoError(t, err)

	token, err := other.IssueEditToken(1)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	token, err = svc.IssueEditToken(1)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken("")
	assert.Error(t, err)
}

func TestNewTokenServiceValidates(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService(testSecret, 0)
	assert.Error(t, err)
}

func TestPasscode(t *testing.T) {
	hash, err := HashPasscode("open-sesame")
	require.NoError(t, err)

	assert.True(t, CheckPasscode("open-sesame", hash))
	assert.False(t, CheckPasscode("wrong", hash))
}
