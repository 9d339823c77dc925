// Package token implements client authentication and access/ID token
// minting, introspection, and revocation. Access tokens are self-describing
// RS256 JWTs signed by the provider's key manager; introspection and
// revocation are backed by a SHA-256 fingerprint index rather than by
// parsing the JWT back out, so a revoked token stops being "active" the
// moment its database row is updated, not whenever its signature happens to
// get checked again.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/fosite"

	"wibusystem/oauth-provider/appstore"
	"wibusystem/oauth-provider/hashing"
	"wibusystem/oauth-provider/keymanager"
	"wibusystem/oauth-provider/userservice"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidClient is returned when client authentication fails. Callers
// must surface this uniformly regardless of whether the client_id was
// unknown or the secret was wrong.
var ErrInvalidClient = errors.New("token: invalid client")

// Service mints, introspects, and revokes access tokens.
type Service struct {
	pool      *pgxpool.Pool
	keys      *keymanager.Manager
	apps      *appstore.Store
	users     *userservice.Store
	issuer    string
	accessTTL time.Duration
}

// New builds a Service.
func New(pool *pgxpool.Pool, keys *keymanager.Manager, apps *appstore.Store, users *userservice.Store, issuer string, accessTTL time.Duration) *Service {
	return &Service{pool: pool, keys: keys, apps: apps, users: users, issuer: issuer, accessTTL: accessTTL}
}

// AuthenticateClient verifies a client_id/client_secret pair, returning the
// matching app on success. Any failure — unknown client, missing secret
// hash, or a mismatched secret — is reported identically as
// ErrInvalidClient.
func (s *Service) AuthenticateClient(ctx context.Context, clientID, clientSecret string) (*appstore.App, error) {
	app, err := s.apps.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, ErrInvalidClient
	}
	if app.ClientSecretHash == "" || !hashing.VerifySecret(clientSecret, app.ClientSecretHash) {
		return nil, ErrInvalidClient
	}
	return app, nil
}

// Response is the JSON shape returned from the token endpoint.
type Response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	IDToken     string `json:"id_token,omitempty"`
}

// IssueClientCredentials mints an access token for the client_credentials
// grant. There is no end user; the subject is the client itself.
func (s *Service) IssueClientCredentials(ctx context.Context, app *appstore.App, requested []string) (*Response, error) {
	granted := app.GrantableScopes(requested)
	accessToken, _, err := s.mint(ctx, app.ClientID, "", granted)
	if err != nil {
		return nil, err
	}
	return &Response{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
		Scope:       joinScopes(granted),
	}, nil
}

// IssueAuthorizationCodeTokens mints the access token (and, if the openid
// scope was granted, an ID token) for a redeemed authorization code.
func (s *Service) IssueAuthorizationCodeTokens(ctx context.Context, app *appstore.App, user *userservice.User, granted []string) (*Response, error) {
	accessToken, _, err := s.mint(ctx, app.ClientID, user.ID.String(), granted)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
		Scope:       joinScopes(granted),
	}

	if fosite.Arguments(granted).Has("openid") {
		idToken, err := s.issueIDToken(app, user, granted)
		if err != nil {
			return nil, err
		}
		resp.IDToken = idToken
	}

	return resp, nil
}

// mint signs a new RS256 access token, persists its fingerprint record, and
// returns the signed token and its jti.
func (s *Service) mint(ctx context.Context, clientID, userID string, scopeList []string) (string, string, error) {
	jti := uuid.New()
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := jwt.MapClaims{
		"iss":       s.issuer,
		"aud":       clientID,
		"client_id": clientID,
		"exp":       expiresAt.Unix(),
		"iat":       now.Unix(),
		"jti":       jti.String(),
		"scope":     joinScopes(scopeList),
	}
	if userID != "" {
		claims["sub"] = userID
	} else {
		claims["sub"] = clientID
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	jwtToken.Header["kid"] = s.keys.KID()

	signed, err := jwtToken.SignedString(s.keys.PrivateKey())
	if err != nil {
		return "", "", fmt.Errorf("token: sign access token: %w", err)
	}

	var userIDParam interface{}
	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err != nil {
			return "", "", fmt.Errorf("token: parse user id: %w", err)
		}
		userIDParam = parsed
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO access_tokens (token_hash, jti, client_id, user_id, scopes, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		hashing.FingerprintToken(signed), jti, clientID, userIDParam, joinScopes(scopeList), expiresAt,
	)
	if err != nil {
		return "", "", fmt.Errorf("token: persist access token: %w", err)
	}

	return signed, jti.String(), nil
}

// issueIDToken mints an OIDC ID token whose claims are gated by the scopes
// granted in the same request: email requires the email scope, profile
// fields require the profile scope, and so on.
func (s *Service) issueIDToken(app *appstore.App, user *userservice.User, granted []string) (string, error) {
	scopeSet := fosite.Arguments(granted)
	now := time.Now()

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"aud": app.ClientID,
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	}

	if scopeSet.Has("email") {
		claims["email"] = user.Email
		claims["email_verified"] = true
	}
	if scopeSet.Has("profile") {
		claims["name"] = user.DisplayName
		claims["picture"] = user.AvatarURL
	}
	if scopeSet.Has("cohort") {
		claims["cohort"] = user.Cohort
	}
	if scopeSet.Has("wallet") {
		claims["wallet_address"] = user.WalletAddress
	}

	idToken := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	idToken.Header["kid"] = s.keys.KID()

	signed, err := idToken.SignedString(s.keys.PrivateKey())
	if err != nil {
		return "", fmt.Errorf("token: sign id token: %w", err)
	}
	return signed, nil
}

// Introspection is the result of checking a token's live status.
type Introspection struct {
	Active   bool
	JTI      string
	Issuer   string
	ClientID string
	UserID   *uuid.UUID
	Scope    string
	IssuedAt time.Time
	ExpireAt time.Time
}

// Introspect reports a token's live status by SHA-256 fingerprint lookup,
// the way the provider's predecessor does rather than re-verifying the JWT
// signature: introspection's job is "has this token been revoked or
// expired", not "is this a well-formed JWT".
func (s *Service) Introspect(ctx context.Context, rawToken string) (*Introspection, error) {
	fingerprint := hashing.FingerprintToken(rawToken)

	var jti uuid.UUID
	var clientID string
	var userID *uuid.UUID
	var scope string
	var expiresAt, createdAt time.Time
	var revoked bool

	row := s.pool.QueryRow(ctx, `
		SELECT jti, client_id, user_id, scopes, expires_at, created_at, revoked
		FROM access_tokens WHERE token_hash = $1`, fingerprint)
	if err := row.Scan(&jti, &clientID, &userID, &scope, &expiresAt, &createdAt, &revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Introspection{Active: false}, nil
		}
		return nil, fmt.Errorf("token: introspect lookup: %w", err)
	}

	if revoked || time.Now().After(expiresAt) {
		return &Introspection{Active: false}, nil
	}

	return &Introspection{
		Active:   true,
		JTI:      jti.String(),
		Issuer:   s.issuer,
		ClientID: clientID,
		UserID:   userID,
		Scope:    scope,
		IssuedAt: createdAt,
		ExpireAt: expiresAt,
	}, nil
}

// Revoke marks a token's record revoked. Revoking an unknown or
// already-revoked token is a no-op success: revocation never discloses
// whether the token it was given ever existed.
func (s *Service) Revoke(ctx context.Context, rawToken string) error {
	fingerprint := hashing.FingerprintToken(rawToken)
	_, err := s.pool.Exec(ctx, `UPDATE access_tokens SET revoked = true WHERE token_hash = $1`, fingerprint)
	if err != nil {
		return fmt.Errorf("token: revoke: %w", err)
	}
	return nil
}

func joinScopes(scopeList []string) string {
	out := ""
	for i, sc := range scopeList {
		if i > 0 {
			out += " "
		}
		out += sc
	}
	return out
}
