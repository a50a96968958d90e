// internal/auth/token.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid api token")

// TokenIssuer signs and verifies API tokens. The subject is the player id.
type TokenIssuer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	ttl  time.Duration
}

// NewTokenIssuer generates a fresh ed25519 key pair. Tokens from an earlier
// process stop working after a restart. A ttl of zero issues tokens without
// expiry.
func NewTokenIssuer(ttl time.Duration) (*TokenIssuer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &TokenIssuer{priv: priv, pub: pub, ttl: ttl}, nil
}

// TokenIssuerFromFiles loads a raw ed25519 key pair.
func TokenIssuerFromFiles(privatePath, publicPath string, ttl time.Duration) (*TokenIssuer, error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize || len(pub) != ed25519.PublicKeySize {
		return nil, errors.New("key files do not hold a raw ed25519 key pair")
	}
	return &TokenIssuer{priv: ed25519.PrivateKey(priv), pub: ed25519.PublicKey(pub), ttl: ttl}, nil
}

// ParseTokenTTL reads a TOKEN_EXPIRE_TIME value. "never", "0" and "" mean
// no expiry.
func ParseTokenTTL(v string) (time.Duration, error) {
	if v == "" || v == "0" || v == "never" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse token expire time %q: %w", v, err)
	}
	return d, nil
}

// Issue creates a signed token for playerID.
func (ti *TokenIssuer) Issue(playerID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  playerID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ti.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ti.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(ti.priv)
}

// Verify checks a token and returns its player id.
func (ti *TokenIssuer) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.pub, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return claims.Subject, nil
}
