package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheap = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("geheim", cheap)
	require.NoError(t, err)
	assert.Regexp(t, `^\$argon2id\$v=19\$m=1024,t=1,p=1\$[A-Za-z0-9+/]+\$[A-Za-z0-9+/]+$`, h)

	other, err := HashPassword("geheim", cheap)
	require.NoError(t, err)
	assert.NotEqual(t, h, other, "salts differ")

	ok, err := CheckPassword("geheim", h)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = CheckPassword("falsch", h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPasswordRejectsBadHashes(t *testing.T) {
	for _, h := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
	} {
		_, err := CheckPassword("pw", h)
		assert.Error(t, err, h)
	}
}

func TestCredentialsLockout(t *testing.T) {
	h, err := HashPassword("geheim", cheap)
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]string{"anna": h})
	require.NoError(t, err)
	creds, err := ParseCredentials(string(raw))
	require.NoError(t, err)

	require.NoError(t, creds.Check("anna", "geheim"))
	assert.ErrorIs(t, creds.Check("erik", "geheim"), ErrBadCredentials)
	assert.Zero(t, creds.FailedAttempts("erik"), "unknown players are not tracked")

	for i := 0; i < MaxFailedAttempts; i++ {
		assert.ErrorIs(t, creds.Check("anna", "falsch"), ErrBadCredentials)
	}
	assert.ErrorIs(t, creds.Check("anna", "geheim"), ErrLockedOut)
	assert.Equal(t, MaxFailedAttempts+1, creds.FailedAttempts("anna"))
}

func TestParseCredentials(t *testing.T) {
	creds, err := ParseCredentials("")
	require.NoError(t, err)
	assert.ErrorIs(t, creds.Check("anna", "x"), ErrBadCredentials)

	_, err = ParseCredentials(`{"anna":`)
	assert.Error(t, err)
	_, err = ParseCredentials(`{"anna":"plaintext"}`)
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestTokenRoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer(time.Hour)
	require.NoError(t, err)

	tok, err := ti.Issue("anna")
	require.NoError(t, err)
	player, err := ti.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "anna", player)

	other, err := NewTokenIssuer(time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "a restart invalidates old tokens")

	_, err = ti.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	ti, err := NewTokenIssuer(time.Hour)
	require.NoError(t, err)
	expired := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Subject:   "anna",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	tok, err := expired.SignedString(ti.priv)
	require.NoError(t, err)
	_, err = ti.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "anna"})
	tok, err = hmac.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ti.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenTTL(t *testing.T) {
	for _, v := range []string{"", "0", "never"} {
		d, err := ParseTokenTTL(v)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
	d, err := ParseTokenTTL("72h")
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, d)
	_, err = ParseTokenTTL("soon")
	assert.Error(t, err)
}
