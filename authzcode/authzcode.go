// Package authzcode implements the authorization code grant's code
// lifecycle: minting a single-use code when the user approves consent and
// redeeming it during /token. Every redemption check is ordered and collapsed into one
// generic failure so a client learns nothing about why its exchange
// failed (see oauthapi's error handling for the public-facing error code).
package authzcode

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wibusystem/oauth-provider/hashing"
)

// ErrExchangeFailed covers every way an authorization code redemption can
// fail: unknown code, already used, client/redirect mismatch, expiry, or a
// bad PKCE verifier. Callers must surface exactly one generic error to the
// client regardless of which branch triggered it.
var ErrExchangeFailed = errors.New("authzcode: exchange failed")

// Code is a minted authorization code and the request parameters it is
// bound to.
type Code struct {
	ID                  uuid.UUID
	Code                string
	ClientID            string
	UserID              uuid.UUID
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	Used                bool
	ExpiresAt           time.Time
	CreatedAt           time.Time
}

// Store persists authorization codes in Postgres.
type Store struct {
	pool   *pgxpool.Pool
	expiry time.Duration
}

// New builds a Store whose codes live for expiry before they're unusable
// even if never redeemed.
func New(pool *pgxpool.Pool, expiry time.Duration) *Store {
	return &Store{pool: pool, expiry: expiry}
}

// CreateParams are the request parameters a minted code binds to.
type CreateParams struct {
	ClientID            string
	UserID              uuid.UUID
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// Create mints and persists a new single-use authorization code.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Code, error) {
	code, err := hashing.GenerateAuthorizationCode()
	if err != nil {
		return nil, fmt.Errorf("authzcode: generate code: %w", err)
	}

	var state interface{}
	if p.State != "" {
		state = p.State
	}
	var challenge, method interface{}
	if p.CodeChallenge != "" {
		challenge = p.CodeChallenge
		method = p.CodeChallengeMethod
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO authorization_codes
			(code, client_id, user_id, redirect_uri, scope, state, code_challenge, code_challenge_method, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, code, client_id, user_id, redirect_uri, scope, state,
			code_challenge, code_challenge_method, used, expires_at, created_at`,
		code, p.ClientID, p.UserID, p.RedirectURI, p.Scope, state, challenge, method,
		time.Now().Add(s.expiry),
	)
	return scanCode(row)
}

func scanCode(row pgx.Row) (*Code, error) {
	var c Code
	var state, challenge, method *string
	if err := row.Scan(
		&c.ID, &c.Code, &c.ClientID, &c.UserID, &c.RedirectURI, &c.Scope,
		&state, &challenge, &method, &c.Used, &c.ExpiresAt, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if state != nil {
		c.State = *state
	}
	if challenge != nil {
		c.CodeChallenge = *challenge
	}
	if method != nil {
		c.CodeChallengeMethod = *method
	}
	return &c, nil
}

// ExchangeParams are the parameters a /token request supplies when
// redeeming a code.
type ExchangeParams struct {
	Code         string
	ClientID     string
	RedirectURI  string
	CodeVerifier string
}

// Exchange redeems an authorization code, enforcing (in order): the code
// exists, is unused, was issued to this client, was issued for this exact
// redirect_uri, has not expired, and — if a PKCE challenge was recorded —
// that the supplied verifier matches it. The code is flipped to used only
// if every check passes, via an atomic conditional UPDATE so concurrent
// redemption attempts can have at most one winner. Any failure returns
// ErrExchangeFailed without indicating which check failed.
func (s *Store) Exchange(ctx context.Context, p ExchangeParams) (*Code, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, code, client_id, user_id, redirect_uri, scope, state,
			code_challenge, code_challenge_method, used, expires_at, created_at
		FROM authorization_codes WHERE code = $1`, p.Code)
	existing, err := scanCode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExchangeFailed
		}
		return nil, fmt.Errorf("authzcode: lookup code: %w", err)
	}

	if existing.Used {
		return nil, ErrExchangeFailed
	}
	if existing.ClientID != p.ClientID {
		return nil, ErrExchangeFailed
	}
	if existing.RedirectURI != p.RedirectURI {
		return nil, ErrExchangeFailed
	}
	if time.Now().After(existing.ExpiresAt) {
		return nil, ErrExchangeFailed
	}
	if existing.CodeChallenge != "" {
		if !verifyPKCE(existing.CodeChallenge, existing.CodeChallengeMethod, p.CodeVerifier) {
			return nil, ErrExchangeFailed
		}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE authorization_codes SET used = true
		WHERE code = $1 AND used = false`, p.Code)
	if err != nil {
		return nil, fmt.Errorf("authzcode: mark used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Another request won the race between our SELECT and this UPDATE.
		return nil, ErrExchangeFailed
	}

	existing.Used = true
	return existing, nil
}

// verifyPKCE checks a code_verifier against the challenge recorded at
// authorization time. S256 is the only hashed method; "plain" compares the
// verifier to the challenge directly.
func verifyPKCE(challenge, method, verifier string) bool {
	if verifier == "" {
		return false
	}
	switch method {
	case "", "plain":
		return hashing.ConstantTimeEqual(challenge, verifier)
	case "S256":
		sum := sha256.Sum256([]byte(verifier))
		computed := base64.RawURLEncoding.EncodeToString(sum[:])
		return hashing.ConstantTimeEqual(challenge, computed)
	default:
		return false
	}
}
