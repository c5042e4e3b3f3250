package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Login tokens look like gw_<64 hex chars>.
const (
	tokenPrefix     = "gw_"
	tokenSecretSize = 32
)

// ErrInvalidToken indicates a presented token is not well formed.
var ErrInvalidToken = errors.New("invalid session token")

// GenerateToken returns a new opaque login token and the hash it is stored under.
func GenerateToken() (token, hash string, err error) {
	secret := make([]byte, tokenSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}

	token = tokenPrefix + hex.EncodeToString(secret)
	return token, HashToken(token), nil
}

// ParseToken checks the token shape before any lookup.
func ParseToken(token string) error {
	secret, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok || len(secret) != tokenSecretSize*2 {
		return ErrInvalidToken
	}
	if _, err := hex.DecodeString(secret); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// HashToken derives the cache key for a token. Raw tokens are never stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
