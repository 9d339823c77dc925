// Package userservice manages the local user record that shadows an
// identity the external broker vouches for. Accounts are created
// just-in-time on first login; there is no separate registration flow.
package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no user matches the given id or broker subject.
var ErrNotFound = errors.New("userservice: user not found")

// User is a locally-provisioned user profile, keyed by the broker's subject.
type User struct {
	ID            uuid.UUID
	BrokerDID     string
	Email         string
	DisplayName   string
	AvatarURL     string
	Cohort        string
	Bio           string
	Socials       map[string]string
	WalletAddress string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store reads and writes the users table.
type Store struct {
	pool *pgxpool.Pool
}

// New builds a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id, broker_did, email, display_name, avatar_url, cohort, bio,
	socials, wallet_address, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var socialsRaw []byte
	var brokerDID, email *string
	if err := row.Scan(
		&u.ID, &brokerDID, &email, &u.DisplayName, &u.AvatarURL,
		&u.Cohort, &u.Bio, &socialsRaw, &u.WalletAddress,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userservice: scan user: %w", err)
	}
	if brokerDID != nil {
		u.BrokerDID = *brokerDID
	}
	if email != nil {
		u.Email = *email
	}
	if len(socialsRaw) > 0 {
		if err := json.Unmarshal(socialsRaw, &u.Socials); err != nil {
			return nil, fmt.Errorf("userservice: decode socials: %w", err)
		}
	}
	return &u, nil
}

// GetByID looks up a user by internal UUID.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByBrokerDID looks up a user by the broker's durable subject id.
func (s *Store) GetByBrokerDID(ctx context.Context, brokerDID string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE broker_did = $1`, brokerDID)
	return scanUser(row)
}

// GetOrCreateFromBroker finds the user shadowing brokerDID, creating one if
// this is their first login. An existing user's email/display name are
// refreshed from the broker's latest values when non-empty, matching the
// reference service's update-on-login behavior.
func (s *Store) GetOrCreateFromBroker(ctx context.Context, brokerDID, email, displayName string) (*User, error) {
	existing, err := s.GetByBrokerDID(ctx, brokerDID)
	if err == nil {
		return s.refresh(ctx, existing, email, displayName)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if displayName == "" {
		displayName = email
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (broker_did, email, display_name)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING `+userColumns,
		brokerDID, email, displayName,
	)
	return scanUser(row)
}

func (s *Store) refresh(ctx context.Context, u *User, email, displayName string) (*User, error) {
	if email == "" && (displayName == "" || displayName == u.DisplayName) {
		return u, nil
	}

	newEmail := u.Email
	if email != "" {
		newEmail = email
	}
	newDisplayName := u.DisplayName
	if displayName != "" {
		newDisplayName = displayName
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE users SET email = NULLIF($2, ''), display_name = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, newEmail, newDisplayName,
	)
	return scanUser(row)
}
