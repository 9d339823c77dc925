package authzcode

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestVerifyPKCES256(t *testing.T) {
	verifier := "a-random-code-verifier-value-1234567890"
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	if !verifyPKCE(challenge, "S256", verifier) {
		t.Fatalf("expected matching S256 verifier to pass")
	}
	if verifyPKCE(challenge, "S256", "wrong-verifier") {
		t.Fatalf("expected mismatched S256 verifier to fail")
	}
}

func TestVerifyPKCEPlain(t *testing.T) {
	if !verifyPKCE("same-value", "plain", "same-value") {
		t.Fatalf("expected matching plain verifier to pass")
	}
	if verifyPKCE("same-value", "plain", "different-value") {
		t.Fatalf("expected mismatched plain verifier to fail")
	}
}

func TestVerifyPKCERejectsEmptyVerifier(t *testing.T) {
	if verifyPKCE("some-challenge", "plain", "") {
		t.Fatalf("expected empty verifier to always fail")
	}
}

func TestVerifyPKCERejectsUnknownMethod(t *testing.T) {
	if verifyPKCE("some-challenge", "weird-method", "some-challenge") {
		t.Fatalf("expected unknown challenge method to fail closed")
	}
}
