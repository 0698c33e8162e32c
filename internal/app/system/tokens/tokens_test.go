package tokens_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwholloway/salescope/internal/app/system/tokens"
)

const testKey = "test-signing-key-must-be-32-chars!!"

func newTestIssuer(t *testing.T, ttl time.Duration) *tokens.Issuer {
	t.Helper()
	iss, err := tokens.NewIssuer(testKey, ttl)
	require.NoError(t, err)
	return iss
}

func TestNewIssuer_RejectsEmptyKey(t *testing.T) {
	_, err := tokens.NewIssuer("", time.Minute)
	assert.Error(t, err)
}

func TestNewIssuer_RejectsZeroTTL(t *testing.T) {
	_, err := tokens.NewIssuer(testKey, 0)
	assert.Error(t, err)
}

func TestMintAndVerify(t *testing.T) {
	iss := newTestIssuer(t, 15*time.Minute)

	access, err := iss.MintAccess("user-123", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, access)

	claims, err := iss.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, time.Minute)
}

func TestVerify_ExpiredReturnsClaims(t *testing.T) {
	iss := newTestIssuer(t, time.Minute)

	// Mint a token one hour in the past so it is expired at verify time.
	tokens.NowTimeFunc = func() time.Time { return time.Now().Add(-time.Hour) }
	access, err := iss.MintAccess("user-123", "ada@example.com")
	tokens.NowTimeFunc = time.Now
	require.NoError(t, err)

	claims, err := iss.Verify(access)
	assert.ErrorIs(t, err, tokens.ErrExpired)
	assert.Equal(t, "user-123", claims.UserID)
}

func TestVerify_WrongKey(t *testing.T) {
	iss := newTestIssuer(t, time.Minute)
	other, err := tokens.NewIssuer("another-key-entirely-also-32-chars", time.Minute)
	require.NoError(t, err)

	access, err := iss.MintAccess("user-123", "ada@example.com")
	require.NoError(t, err)

	_, err = other.Verify(access)
	assert.ErrorIs(t, err, tokens.ErrInvalid)
}

func TestVerify_Garbage(t *testing.T) {
	iss := newTestIssuer(t, time.Minute)

	_, err := iss.Verify("not.a.jwt")
	assert.ErrorIs(t, err, tokens.ErrInvalid)

	_, err = iss.Verify("")
	assert.ErrorIs(t, err, tokens.ErrInvalid)
}

func TestNewRefreshToken_Unique(t *testing.T) {
	a := tokens.NewRefreshToken()
	b := tokens.NewRefreshToken()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
