// Package hashing provides client credential generation, secret hashing,
// and token fingerprinting used throughout the OAuth core. Nothing here
// stores a raw secret or token; everything at rest is either a bcrypt hash
// or a SHA-256 fingerprint.
package hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBCryptCost matches the teacher's default; override via config.
const DefaultBCryptCost = bcrypt.DefaultCost

// GenerateClientID returns a random 32-character hex client identifier.
func GenerateClientID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("hashing: generate client id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateClientSecret returns a random URL-safe client secret.
func GenerateClientSecret() (string, error) {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("hashing: generate client secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateAuthorizationCode returns a random URL-safe authorization code
// with enough entropy that brute-forcing it is infeasible.
func GenerateAuthorizationCode() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("hashing: generate authorization code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSecret bcrypt-hashes a client secret for storage.
func HashSecret(secret string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultBCryptCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hashing: hash secret: %w", err)
	}
	return string(h), nil
}

// VerifySecret reports whether secret matches the bcrypt hash produced by
// HashSecret. It does not distinguish between a malformed hash and a
// mismatched secret; callers must not leak that distinction either.
func VerifySecret(secret, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret)) == nil
}

// FingerprintToken returns the SHA-256 hex digest of a bearer token, used as
// the lookup key for introspection/revocation so raw tokens are never
// persisted.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEqual compares two strings in constant time, for comparing
// PKCE code challenges and other values where timing leaks matter.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
