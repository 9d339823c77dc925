// Package broker verifies identity tokens issued by the external identity
// broker and fetches broker-side user profiles. This core trusts the
// broker completely: it never asks a user for a password, it only verifies
// a token the broker already issued.
package broker

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// jwksCacheTTL matches the original provider's one-hour cache window.
const jwksCacheTTL = time.Hour

// Config points at the broker's endpoints and credentials.
type Config struct {
	AppID      string
	AppSecret  string
	JWKSURL    string
	ProfileURL string // e.g. "https://auth.example.com/api/v1/users/%s", %s = subject
	Issuer     string
	HTTPClient *http.Client
}

// Verifier verifies broker-issued ES256 JWTs and fetches broker profiles.
type Verifier struct {
	cfg    Config
	client *http.Client

	mu        sync.RWMutex
	jwks      jwksResponse
	fetchedAt time.Time
	sf        singleflight.Group
}

// New constructs a Verifier. The JWKS is fetched lazily on first use.
func New(cfg Config) *Verifier {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{cfg: cfg, client: client}
}

type jwksResponse struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// Claims is the subset of broker JWT claims this provider cares about.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// Verify checks a broker-issued JWT's signature, issuer, audience, and
// expiry, returning the broker's subject (its durable user identifier) on
// success. Any failure — network, parse, signature, or claim mismatch —
// collapses to a generic error; callers must not try to distinguish them.
func (v *Verifier) Verify(token string) (string, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("broker: malformed token")
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return "", fmt.Errorf("broker: token missing kid")
	}

	key, err := v.key(kid)
	if err != nil {
		return "", fmt.Errorf("broker: unknown signing key")
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return key, nil
	}, jwt.WithIssuer(v.cfg.Issuer), jwt.WithAudience(v.cfg.AppID))
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("broker: token verification failed")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("broker: token missing subject")
	}
	return claims.Subject, nil
}

// key returns the EC public key for kid, refreshing the cached JWKS (once,
// via singleflight) if the key is unknown or the cache has expired.
func (v *Verifier) key(kid string) (*ecdsa.PublicKey, error) {
	if key, ok := v.cachedKey(kid); ok {
		return key, nil
	}

	_, err, _ := v.sf.Do("refresh", func() (interface{}, error) {
		return nil, v.refresh()
	})
	if err != nil {
		return nil, err
	}

	if key, ok := v.cachedKey(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("broker: key %q not found in jwks", kid)
}

func (v *Verifier) cachedKey(kid string) (*ecdsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if time.Since(v.fetchedAt) > jwksCacheTTL {
		return nil, false
	}
	for _, k := range v.jwks.Keys {
		if k.Kid == kid {
			pub, err := parseECPublicKey(k)
			if err != nil {
				return nil, false
			}
			return pub, true
		}
	}
	return nil, false
}

func (v *Verifier) refresh() error {
	req, err := http.NewRequest(http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("broker: jwks fetch returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var parsed jwksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return err
	}

	v.mu.Lock()
	v.jwks = parsed
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}

func parseECPublicKey(k jwk) (*ecdsa.PublicKey, error) {
	if k.Kty != "EC" || k.Crv != "P-256" {
		return nil, fmt.Errorf("broker: unsupported key type %s/%s", k.Kty, k.Crv)
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, err
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// Profile is the subset of the broker's user profile API response this
// provider consumes for just-in-time account creation.
type Profile struct {
	Subject        string `json:"-"`
	Email          string `json:"-"`
	LinkedAccounts []struct {
		Type    string `json:"type"`
		Address string `json:"address"`
	} `json:"linked_accounts"`
}

// FetchProfile fetches the broker profile for subject, authenticating with
// HTTP Basic auth using the provider's broker app credentials. It returns
// nil (not an error) if the broker doesn't have a profile for that subject
// or is unreachable — callers fall back to JIT-provisioning with no email.
func (v *Verifier) FetchProfile(subject string) *Profile {
	url := fmt.Sprintf(v.cfg.ProfileURL, subject)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.SetBasicAuth(v.cfg.AppID, v.cfg.AppSecret)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil
	}
	profile.Subject = subject
	for _, acct := range profile.LinkedAccounts {
		if acct.Type == "email" {
			profile.Email = acct.Address
			break
		}
	}
	return &profile
}
