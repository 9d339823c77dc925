package oauthapi

import (
	"github.com/gin-gonic/gin"

	"wibusystem/oauth-provider/authzcode"
	"wibusystem/oauth-provider/token"
)

// Token handles POST /oauth/token, dispatching on grant_type.
func (h *Handlers) Token(c *gin.Context) {
	switch grantType := c.PostForm("grant_type"); grantType {
	case "client_credentials":
		h.tokenClientCredentials(c)
	case "authorization_code":
		h.tokenAuthorizationCode(c)
	default:
		unsupportedGrantType(c, grantType)
	}
}

func (h *Handlers) tokenClientCredentials(c *gin.Context) {
	clientID := c.PostForm("client_id")
	clientSecret := c.PostForm("client_secret")
	if clientID == "" || clientSecret == "" {
		invalidRequest(c, "client_id and client_secret are required")
		return
	}

	app, err := h.Tokens.AuthenticateClient(c.Request.Context(), clientID, clientSecret)
	if err != nil {
		invalidClient(c, "client authentication failed")
		return
	}

	resp, err := h.Tokens.IssueClientCredentials(c.Request.Context(), app, splitScope(c.PostForm("scope")))
	if err != nil {
		invalidRequest(c, "failed to issue token")
		return
	}

	c.JSON(200, resp)
}

func (h *Handlers) tokenAuthorizationCode(c *gin.Context) {
	code := c.PostForm("code")
	clientID := c.PostForm("client_id")
	redirectURI := c.PostForm("redirect_uri")
	clientSecret := c.PostForm("client_secret")

	if code == "" || clientID == "" || redirectURI == "" {
		invalidRequest(c, "code, client_id, and redirect_uri are required")
		return
	}

	var app, err = h.Apps.GetByClientID(c.Request.Context(), clientID)
	if err != nil {
		invalidClient(c, "client authentication failed")
		return
	}
	if clientSecret != "" {
		if _, err := h.Tokens.AuthenticateClient(c.Request.Context(), clientID, clientSecret); err != nil {
			invalidClient(c, "client authentication failed")
			return
		}
	}

	redeemed, err := h.Codes.Exchange(c.Request.Context(), authzcode.ExchangeParams{
		Code:         code,
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		CodeVerifier: c.PostForm("code_verifier"),
	})
	if err != nil {
		invalidGrant(c)
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), redeemed.UserID)
	if err != nil {
		invalidGrant(c)
		return
	}

	resp, err := h.Tokens.IssueAuthorizationCodeTokens(c.Request.Context(), app, user, splitScope(redeemed.Scope))
	if err != nil {
		invalidRequest(c, "failed to issue token")
		return
	}

	c.JSON(200, resp)
}

// Introspect handles POST /oauth/token/introspect, always replying 200.
func (h *Handlers) Introspect(c *gin.Context) {
	result, err := h.Tokens.Introspect(c.Request.Context(), c.PostForm("token"))
	if err != nil {
		c.JSON(200, gin.H{"active": false})
		return
	}
	c.JSON(200, introspectionResponse(result))
}

func introspectionResponse(r *token.Introspection) gin.H {
	if !r.Active {
		return gin.H{"active": false}
	}
	out := gin.H{
		"active":     true,
		"scope":      r.Scope,
		"client_id":  r.ClientID,
		"token_type": "Bearer",
		"exp":        r.ExpireAt.Unix(),
		"iat":        r.IssuedAt.Unix(),
		"jti":        r.JTI,
		"iss":        r.Issuer,
	}
	if r.UserID != nil {
		out["user_id"] = r.UserID.String()
	}
	return out
}

// Revoke handles POST /oauth/token/revoke, always replying 200 regardless
// of whether the token existed.
func (h *Handlers) Revoke(c *gin.Context) {
	_ = h.Tokens.Revoke(c.Request.Context(), c.PostForm("token"))
	c.JSON(200, gin.H{})
}
