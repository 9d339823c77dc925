// Package oauthapi wires the protocol services into gin HTTP handlers for
// the authorize/consent/token/userinfo/introspect/revoke surface, plus the
// session-issuing broker login endpoints the consent flow depends on.
package oauthapi

import (
	"github.com/google/uuid"

	"wibusystem/oauth-provider/appstore"
	"wibusystem/oauth-provider/authzcode"
	"wibusystem/oauth-provider/broker"
	"wibusystem/oauth-provider/middleware"
	"wibusystem/oauth-provider/scopes"
	"wibusystem/oauth-provider/session"
	"wibusystem/oauth-provider/token"
	"wibusystem/oauth-provider/userservice"
)

// Handlers groups every dependency the OAuth HTTP surface needs.
type Handlers struct {
	Sessions    *session.Manager
	Apps        *appstore.Store
	Users       *userservice.Store
	Codes       *authzcode.Store
	Tokens      *token.Service
	Broker      *broker.Verifier
	Auth        *middleware.AuthMiddleware
	FrontendURL string
}

// New builds a Handlers bundle.
func New(sessions *session.Manager, apps *appstore.Store, users *userservice.Store, codes *authzcode.Store, tokens *token.Service, brokerVerifier *broker.Verifier, auth *middleware.AuthMiddleware, frontendURL string) *Handlers {
	return &Handlers{
		Sessions:    sessions,
		Apps:        apps,
		Users:       users,
		Codes:       codes,
		Tokens:      tokens,
		Broker:      brokerVerifier,
		Auth:        auth,
		FrontendURL: frontendURL,
	}
}

func scopeByName(name string) (scopes.Scope, bool) {
	for _, s := range scopes.Catalog {
		if s.Name == name {
			return s, true
		}
	}
	return scopes.Scope{}, false
}

func authzcodeCreateParams(clientID string, userID uuid.UUID, redirectURI string, granted []string, state, challenge, method string) authzcode.CreateParams {
	return authzcode.CreateParams{
		ClientID:            clientID,
		UserID:              userID,
		RedirectURI:         redirectURI,
		Scope:               joinScope(granted),
		State:               state,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
	}
}

func joinScope(list []string) string {
	out := ""
	for i, s := range list {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
