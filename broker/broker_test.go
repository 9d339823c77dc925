package broker

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func issueToken(t *testing.T, priv *ecdsa.PrivateKey, kid, issuer, audience, subject string) string {
	t.Helper()
	claims := Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newJWKSServer(t *testing.T, priv *ecdsa.PrivateKey, kid string) *httptest.Server {
	t.Helper()
	pub := priv.PublicKey
	body := jwksResponse{Keys: []jwk{{
		Kty: "EC",
		Kid: kid,
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(pub.X.Bytes()),
		Y:   base64.RawURLEncoding.EncodeToString(pub.Y.Bytes()),
	}}}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestVerifyValidToken(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, priv, "broker-key-1")
	defer srv.Close()

	v := New(Config{
		AppID:   "app-123",
		JWKSURL: srv.URL,
		Issuer:  "broker.example",
	})

	token := issueToken(t, priv, "broker-key-1", "broker.example", "app-123", "did:broker:abc")

	subject, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if subject != "did:broker:abc" {
		t.Fatalf("expected subject did:broker:abc, got %q", subject)
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, priv, "broker-key-1")
	defer srv.Close()

	v := New(Config{
		AppID:   "app-123",
		JWKSURL: srv.URL,
		Issuer:  "broker.example",
	})

	token := issueToken(t, priv, "broker-key-1", "broker.example", "some-other-app", "did:broker:abc")

	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected audience mismatch to be rejected")
	}
}

func TestVerifyRejectsUnknownKid(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, priv, "broker-key-1")
	defer srv.Close()

	v := New(Config{
		AppID:   "app-123",
		JWKSURL: srv.URL,
		Issuer:  "broker.example",
	})

	token := issueToken(t, priv, "unknown-kid", "broker.example", "app-123", "did:broker:abc")

	if _, err := v.Verify(token); err == nil {
		t.Fatalf("expected unknown kid to be rejected")
	}
}
