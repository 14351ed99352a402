package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// APIKeyAuthenticator implements authentication using static API keys
type APIKeyAuthenticator struct {
	keys [][]byte
}

// NewAPIKeyAuthenticator creates a new API key authenticator. Empty keys are ignored.
func NewAPIKeyAuthenticator(keys []string) *APIKeyAuthenticator {
	a := &APIKeyAuthenticator{}
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			a.keys = append(a.keys, []byte(key))
		}
	}
	return a
}

// Authenticate validates a token and returns a client ID derived from the key.
// The raw key never leaves this package.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	// Remove "Bearer " prefix if present
	token = strings.TrimPrefix(token, "Bearer ")
	token = strings.TrimSpace(token)

	if token == "" {
		return "", ErrInvalidToken
	}

	candidate := []byte(token)
	matched := false
	for _, key := range a.keys {
		if subtle.ConstantTimeCompare(key, candidate) == 1 {
			matched = true
		}
	}
	if !matched {
		return "", ErrAuthenticationFailed
	}

	return clientID(token), nil
}

func clientID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "key-" + hex.EncodeToString(sum[:4])
}
