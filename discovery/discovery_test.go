package discovery

import (
	"testing"

	"wibusystem/oauth-provider/keymanager"
	"wibusystem/oauth-provider/scopes"
)

func TestBuildMetadataScopesSupportedMatchesFullCatalog(t *testing.T) {
	keys, err := keymanager.Load(keymanager.Config{})
	if err != nil {
		t.Fatalf("keymanager.Load: %v", err)
	}
	h := New(keys, "https://issuer.example")

	metadata := h.buildMetadata()
	want := scopes.Names()
	if len(metadata.ScopesSupported) != len(want) {
		t.Fatalf("expected %d scopes, got %d", len(want), len(metadata.ScopesSupported))
	}
	for i, name := range want {
		if metadata.ScopesSupported[i] != name {
			t.Fatalf("scope %d: expected %q, got %q", i, name, metadata.ScopesSupported[i])
		}
	}
}

func TestBuildMetadataEndpoints(t *testing.T) {
	keys, err := keymanager.Load(keymanager.Config{})
	if err != nil {
		t.Fatalf("keymanager.Load: %v", err)
	}
	h := New(keys, "https://issuer.example")

	metadata := h.buildMetadata()
	if metadata.TokenEndpoint != "https://issuer.example/oauth/token" {
		t.Fatalf("unexpected token endpoint: %s", metadata.TokenEndpoint)
	}
	if metadata.JWKSURI != "https://issuer.example/.well-known/jwks.json" {
		t.Fatalf("unexpected jwks uri: %s", metadata.JWKSURI)
	}
}
