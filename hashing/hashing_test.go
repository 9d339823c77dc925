package hashing

import "testing"

func TestGenerateClientID(t *testing.T) {
	id, err := GenerateClientID()
	if err != nil {
		t.Fatalf("GenerateClientID: %v", err)
	}
	if len(id) != 32 {
		t.Fatalf("expected 32 hex chars, got %d (%q)", len(id), id)
	}
	id2, _ := GenerateClientID()
	if id == id2 {
		t.Fatalf("expected distinct client ids")
	}
}

func TestHashAndVerifySecret(t *testing.T) {
	secret := "s3cr3t-value"
	hash, err := HashSecret(secret, 4)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if !VerifySecret(secret, hash) {
		t.Fatalf("expected secret to verify against its own hash")
	}
	if VerifySecret("wrong-secret", hash) {
		t.Fatalf("expected mismatched secret to fail verification")
	}
}

func TestFingerprintTokenDeterministic(t *testing.T) {
	a := FingerprintToken("some-token")
	b := FingerprintToken("some-token")
	if a != b {
		t.Fatalf("expected fingerprint to be deterministic")
	}
	if a == FingerprintToken("other-token") {
		t.Fatalf("expected distinct tokens to fingerprint differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars for sha256, got %d", len(a))
	}
}
