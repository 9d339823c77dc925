package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wibusystem/oauth-provider/appstore"
	"wibusystem/oauth-provider/keymanager"
	"wibusystem/oauth-provider/userservice"
)

func TestJoinScopes(t *testing.T) {
	if got := joinScopes(nil); got != "" {
		t.Fatalf("expected empty string for nil scopes, got %q", got)
	}
	if got := joinScopes([]string{"openid", "profile"}); got != "openid profile" {
		t.Fatalf("expected space-joined scopes, got %q", got)
	}
}

func TestIssueIDTokenGatesClaimsByGrantedScope(t *testing.T) {
	keys, err := keymanager.Load(keymanager.Config{})
	if err != nil {
		t.Fatalf("keymanager.Load: %v", err)
	}
	svc := &Service{keys: keys, issuer: "https://issuer.example", accessTTL: time.Hour}

	app := &appstore.App{ClientID: "client-123"}
	user := &userservice.User{
		ID:          uuid.New(),
		Email:       "user@example.com",
		DisplayName: "Example User",
	}

	signed, err := svc.issueIDToken(app, user, []string{"openid", "email"})
	if err != nil {
		t.Fatalf("issueIDToken: %v", err)
	}

	var claims jwt.MapClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(tok *jwt.Token) (interface{}, error) {
		return keys.PublicKey(), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("expected id token to verify against the provider's own key: %v", err)
	}

	if claims["email"] != "user@example.com" {
		t.Fatalf("expected email claim to be present, got %v", claims["email"])
	}
	if _, hasName := claims["name"]; hasName {
		t.Fatalf("expected name claim to be absent without the profile scope")
	}
}
