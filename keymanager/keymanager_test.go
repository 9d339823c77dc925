package keymanager

import "testing"

func TestLoadGeneratesKeyAndFixedKID(t *testing.T) {
	m, err := Load(Config{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.KID() != "oauth-provider-key-1" {
		t.Fatalf("expected fixed kid, got %q", m.KID())
	}
	if m.PrivateKey() == nil || m.PublicKey() == nil {
		t.Fatalf("expected a generated keypair")
	}
}

func TestJWKSShape(t *testing.T) {
	m, err := Load(Config{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	jwks := m.JWKS()
	if len(jwks.Keys) != 1 {
		t.Fatalf("expected exactly one key, got %d", len(jwks.Keys))
	}
	k := jwks.Keys[0]
	if k.Kty != "RSA" || k.Use != "sig" || k.Alg != "RS256" {
		t.Fatalf("unexpected key fields: %+v", k)
	}
	if k.Kid != "oauth-provider-key-1" {
		t.Fatalf("unexpected kid: %q", k.Kid)
	}
	if k.N == "" || k.E == "" {
		t.Fatalf("expected non-empty n/e")
	}
}

func TestPersistAndReload(t *testing.T) {
	dir := t.TempDir()
	m1, err := Load(Config{KeysDir: dir})
	if err != nil {
		t.Fatalf("Load (generate): %v", err)
	}

	m2, err := Load(Config{KeysDir: dir})
	if err != nil {
		t.Fatalf("Load (reload): %v", err)
	}

	if m1.PublicKey().N.Cmp(m2.PublicKey().N) != 0 {
		t.Fatalf("expected reloaded key to match generated key")
	}
}
