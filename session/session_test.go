package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMintAndVerifyRoundTrip(t *testing.T) {
	m := New("test-secret", time.Hour, false, "")
	userID := uuid.New()

	token, err := m.Mint(userID)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := New("test-secret", -time.Minute, false, "")
	token, err := m.Mint(uuid.New())
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := m.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired session, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m1 := New("secret-one", time.Hour, false, "")
	m2 := New("secret-two", time.Hour, false, "")

	token, err := m1.Mint(uuid.New())
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := m2.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := New("test-secret", time.Hour, false, "")
	if _, err := m.Verify("not-a-jwt"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage input, got %v", err)
	}
}
