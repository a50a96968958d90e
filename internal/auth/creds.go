// internal/auth/creds.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrBadCredentials = errors.New("invalid username / password")
	ErrLockedOut      = errors.New("too many failed attempts")
)

// MaxFailedAttempts locks a player out of login. The counter lives in
// memory and is cleared by a restart only.
const MaxFailedAttempts = 5

// Credentials checks logins against a fixed set of argon2id hashes.
type Credentials struct {
	mu     sync.Mutex
	hashes map[string]string
	failed map[string]int
}

// NewCredentials wraps a map of player id to encoded hash.
func NewCredentials(hashes map[string]string) *Credentials {
	c := &Credentials{hashes: make(map[string]string, len(hashes)), failed: make(map[string]int)}
	for id, h := range hashes {
		c.hashes[id] = h
	}
	return c
}

// ParseCredentials reads the PLAYER_CREDS JSON object.
func ParseCredentials(raw string) (*Credentials, error) {
	hashes := map[string]string{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &hashes); err != nil {
			return nil, fmt.Errorf("parse player credentials: %w", err)
		}
	}
	for id, h := range hashes {
		if _, _, _, err := decodeHash(h); err != nil {
			return nil, fmt.Errorf("hash of player %q: %w", id, err)
		}
	}
	return NewCredentials(hashes), nil
}

// Check verifies a login. Every failure for a known player counts toward
// the lockout, and a locked player is refused even with the right password.
func (c *Credentials) Check(playerID, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, ok := c.hashes[playerID]
	if !ok {
		return ErrBadCredentials
	}
	if c.failed[playerID] >= MaxFailedAttempts {
		c.failed[playerID]++
		return ErrLockedOut
	}
	match, err := CheckPassword(password, hash)
	if err != nil {
		return fmt.Errorf("check password of %s: %w", playerID, err)
	}
	if !match {
		c.failed[playerID]++
		return ErrBadCredentials
	}
	return nil
}

// FailedAttempts returns the failure count of a player.
func (c *Credentials) FailedAttempts(playerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed[playerID]
}
