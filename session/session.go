// Package session issues and verifies the HS256 JWT carried in the
// provider's browser session cookie. This sits in front of the broker: once
// a user authenticates with the external identity broker, this package is
// what keeps them logged in to the authorize/consent flow.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the name of the session cookie, matching the predecessor
// service this provider replaces.
const CookieName = "ns_session"

const tokenType = "session"

// ErrInvalidToken is returned when a session token fails to parse or verify.
var ErrInvalidToken = errors.New("session: invalid token")

// Manager mints and verifies session tokens and sets/clears the cookie that
// carries them.
type Manager struct {
	secret   []byte
	maxAge   time.Duration
	secure   bool
	sameSite http.SameSite
	domain   string
}

// New builds a Manager. secure controls the cookie's Secure flag; it should
// be true everywhere except local HTTP development.
func New(secret string, maxAge time.Duration, secure bool, domain string) *Manager {
	return &Manager{
		secret:   []byte(secret),
		maxAge:   maxAge,
		secure:   secure,
		sameSite: http.SameSiteLaxMode,
		domain:   domain,
	}
}

type claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Mint creates a signed session token for userID.
func (m *Manager) Mint(userID uuid.UUID) (string, error) {
	now := time.Now()
	c := claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(m.secret)
}

// Verify parses and validates a session token, returning the subject user
// id. Any parse, signature, expiry, or type mismatch collapses to
// ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (uuid.UUID, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	if c.Type != tokenType {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// SetCookie mints a token for userID and attaches it to the response.
func (m *Manager) SetCookie(c *gin.Context, userID uuid.UUID) error {
	token, err := m.Mint(userID)
	if err != nil {
		return err
	}
	c.SetSameSite(m.sameSite)
	c.SetCookie(CookieName, token, int(m.maxAge.Seconds()), "/", m.domain, m.secure, true)
	return nil
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(c *gin.Context) {
	c.SetSameSite(m.sameSite)
	c.SetCookie(CookieName, "", -1, "/", m.domain, m.secure, true)
}

// UserID reads and verifies the session cookie from the request, returning
// the authenticated user id, or false if there is no valid session.
func (m *Manager) UserID(c *gin.Context) (uuid.UUID, bool) {
	token, err := c.Cookie(CookieName)
	if err != nil || token == "" {
		return uuid.Nil, false
	}
	userID, err := m.Verify(token)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
