// Package appstore provides lookup and scope validation for registered
// OAuth apps (clients). App registration itself (create/update/delete,
// icon upload) is a thin data-management concern outside this core; this
// package only reads what the registrar wrote.
package appstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wibusystem/oauth-provider/scopes"
)

// ErrNotFound is returned when no app matches the given client id.
var ErrNotFound = errors.New("appstore: app not found")

// App is a registered OAuth client.
type App struct {
	ID               uuid.UUID
	ClientID         string
	ClientSecretHash string
	Name             string
	Description      string
	IconURL          string
	PrivacyPolicyURL string
	Scopes           []string
	RedirectURIs     []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasRedirectURI reports whether uri is one of the app's registered
// redirect URIs, compared by exact string match (no prefix/wildcard
// matching — open redirect prevention).
func (a *App) HasRedirectURI(uri string) bool {
	for _, r := range a.RedirectURIs {
		if r == uri {
			return true
		}
	}
	return false
}

// GrantableScopes intersects requested against the app's configured scope
// list. If the app has no configured scopes at all, whatever was requested
// is granted as-is (matching the reference implementation's edge case);
// otherwise only the subset the app is actually allowed to request survives.
func (a *App) GrantableScopes(requested []string) []string {
	if len(a.Scopes) == 0 {
		return append([]string(nil), requested...)
	}
	if len(requested) == 0 {
		return append([]string(nil), a.Scopes...)
	}

	allowed := make(map[string]bool, len(a.Scopes))
	for _, s := range a.Scopes {
		allowed[s] = true
	}

	granted := make([]string, 0, len(requested))
	for _, s := range requested {
		if allowed[s] {
			granted = append(granted, s)
		}
	}
	return granted
}

// Store reads oauth_apps from Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New builds a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const appColumns = `id, client_id, client_secret_hash, name, description, icon_url,
	privacy_policy_url, scopes, redirect_uris, created_at, updated_at`

func scanApp(row pgx.Row) (*App, error) {
	var a App
	var secretHash *string
	if err := row.Scan(
		&a.ID, &a.ClientID, &secretHash, &a.Name, &a.Description,
		&a.IconURL, &a.PrivacyPolicyURL, &a.Scopes, &a.RedirectURIs,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appstore: scan app: %w", err)
	}
	if secretHash != nil {
		a.ClientSecretHash = *secretHash
	}
	return &a, nil
}

// GetByClientID looks up an app by its public client_id.
func (s *Store) GetByClientID(ctx context.Context, clientID string) (*App, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM oauth_apps WHERE client_id = $1`, clientID)
	return scanApp(row)
}

// ValidScopeCatalog reports whether every scope in names is one this
// provider knows about, regardless of whether any particular app is allowed
// to request it.
func ValidScopeCatalog(names []string) bool {
	return scopes.Valid(names)
}
