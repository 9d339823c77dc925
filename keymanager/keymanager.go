// Package keymanager owns the provider's RSA signing key and exposes it as
// a JSON Web Key Set. There is a single key for the lifetime of the process;
// key rotation is out of scope.
package keymanager

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// fixedKID is deliberately a constant rather than a hash of the public key:
// consumers pin their JWKS cache to this value, and rotating keys without
// rotating the id would require coordinated client changes this provider
// does not support.
const fixedKID = "oauth-provider-key-1"

// Manager holds the provider's RSA keypair and produces JWKS documents.
type Manager struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	kid     string
}

// Config controls where Load looks for an existing keypair before
// generating a fresh one.
type Config struct {
	// PrivatePEM and PublicPEM, if both set, are used directly (e.g.
	// decoded from base64-encoded environment variables).
	PrivatePEM []byte
	PublicPEM  []byte

	// KeysDir, if set and PrivatePEM/PublicPEM are empty, is checked for
	// private.pem/public.pem; if absent, a new keypair is generated and
	// persisted there.
	KeysDir string
}

// Load resolves a keypair following the same precedence as the provider's
// Python predecessor: explicit PEM first, then on-disk files, then generate
// and persist.
func Load(cfg Config) (*Manager, error) {
	if len(cfg.PrivatePEM) > 0 && len(cfg.PublicPEM) > 0 {
		priv, err := parsePrivatePEM(cfg.PrivatePEM)
		if err != nil {
			return nil, fmt.Errorf("keymanager: parse private key: %w", err)
		}
		return &Manager{private: priv, public: &priv.PublicKey, kid: fixedKID}, nil
	}

	if cfg.KeysDir != "" {
		privPath := filepath.Join(cfg.KeysDir, "private.pem")
		pubPath := filepath.Join(cfg.KeysDir, "public.pem")

		if privBytes, err := os.ReadFile(privPath); err == nil {
			if _, err := os.Stat(pubPath); err == nil {
				priv, err := parsePrivatePEM(privBytes)
				if err != nil {
					return nil, fmt.Errorf("keymanager: parse on-disk private key: %w", err)
				}
				return &Manager{private: priv, public: &priv.PublicKey, kid: fixedKID}, nil
			}
		}

		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("keymanager: generate key: %w", err)
		}
		if err := persist(cfg.KeysDir, priv); err != nil {
			return nil, fmt.Errorf("keymanager: persist generated key: %w", err)
		}
		return &Manager{private: priv, public: &priv.PublicKey, kid: fixedKID}, nil
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("keymanager: generate key: %w", err)
	}
	return &Manager{private: priv, public: &priv.PublicKey, kid: fixedKID}, nil
}

func parsePrivatePEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PEM block is not an RSA private key")
	}
	return rsaKey, nil
}

func persist(dir string, priv *rsa.PrivateKey) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: mustMarshalPKCS8(priv),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	if err := os.WriteFile(filepath.Join(dir, "private.pem"), privPEM, 0o600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "public.pem"), pubPEM, 0o644)
}

func mustMarshalPKCS8(priv *rsa.PrivateKey) []byte {
	b, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		// priv was just generated by rsa.GenerateKey; marshaling cannot fail.
		panic(err)
	}
	return b
}

// PrivateKey returns the RSA private key used to sign tokens.
func (m *Manager) PrivateKey() *rsa.PrivateKey { return m.private }

// PublicKey returns the RSA public key used to verify tokens.
func (m *Manager) PublicKey() *rsa.PublicKey { return m.public }

// KID returns the fixed key id advertised in JWT headers and the JWKS.
func (m *Manager) KID() string { return m.kid }

// JWK is a single entry in a JSON Web Key Set.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is a JSON Web Key Set document.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWKS returns this provider's public key as a single-key JSON Web Key Set.
func (m *Manager) JWKS() JWKS {
	return JWKS{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: m.kid,
		N:   base64.RawURLEncoding.EncodeToString(m.public.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(intToBytes(m.public.E)),
	}}}
}

// intToBytes renders a positive int as minimal big-endian bytes, the
// encoding JWK "e" values use.
func intToBytes(i int) []byte {
	if i == 0 {
		return []byte{0}
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte(i & 0xff)}, b...)
		i >>= 8
	}
	return b
}
