// Package discovery serves the .well-known metadata documents clients use
// to locate this provider's endpoints and capabilities: the JWKS, the OAuth
// 2.0 Authorization Server Metadata (RFC 8414), and the OIDC discovery
// document that extends it.
package discovery

import (
	"github.com/gin-gonic/gin"

	"wibusystem/oauth-provider/keymanager"
	"wibusystem/oauth-provider/scopes"
)

// Handlers serves the discovery documents. Issuer is this provider's own
// base URL, used to build every endpoint it advertises.
type Handlers struct {
	Keys   *keymanager.Manager
	Issuer string
}

// New builds a Handlers.
func New(keys *keymanager.Manager, issuer string) *Handlers {
	return &Handlers{Keys: keys, Issuer: issuer}
}

// authServerMetadata is the OAuth 2.0 Authorization Server Metadata shape
// from RFC 8414; oidcConfiguration embeds it and adds the OIDC-specific
// required fields.
type authServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint,omitempty"`
	JWKSURI                           string   `json:"jwks_uri"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	RevocationEndpoint                string   `json:"revocation_endpoint,omitempty"`
	IntrospectionEndpoint             string   `json:"introspection_endpoint,omitempty"`
}

func (h *Handlers) buildMetadata() authServerMetadata {
	return authServerMetadata{
		Issuer:                            h.Issuer,
		AuthorizationEndpoint:             h.Issuer + "/oauth/authorize",
		TokenEndpoint:                     h.Issuer + "/oauth/token",
		UserinfoEndpoint:                  h.Issuer + "/oauth/userinfo",
		JWKSURI:                           h.Issuer + "/.well-known/jwks.json",
		ScopesSupported:                   scopes.Names(),
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"client_credentials", "authorization_code"},
		CodeChallengeMethodsSupported:     []string{"S256", "plain"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "none"},
		RevocationEndpoint:                h.Issuer + "/oauth/token/revoke",
		IntrospectionEndpoint:             h.Issuer + "/oauth/token/introspect",
	}
}

// oidcConfiguration extends authServerMetadata with the fields OIDC
// Discovery 1.0 requires that RFC 8414 does not.
type oidcConfiguration struct {
	authServerMetadata
	SubjectTypesSupported            []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported"`
}

// JWKS handles GET /.well-known/jwks.json.
func (h *Handlers) JWKS(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(200, h.Keys.JWKS())
}

// OAuthAuthorizationServer handles GET /.well-known/oauth-authorization-server.
func (h *Handlers) OAuthAuthorizationServer(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(200, h.buildMetadata())
}

// OpenIDConfiguration handles GET /.well-known/openid-configuration.
func (h *Handlers) OpenIDConfiguration(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(200, oidcConfiguration{
		authServerMetadata:               h.buildMetadata(),
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{"RS256"},
	})
}

// Register attaches the discovery routes to engine.
func (h *Handlers) Register(engine *gin.Engine) {
	wellKnown := engine.Group("/.well-known")
	{
		wellKnown.GET("/jwks.json", h.JWKS)
		wellKnown.GET("/oauth-authorization-server", h.OAuthAuthorizationServer)
		wellKnown.GET("/openid-configuration", h.OpenIDConfiguration)
	}
}
