package oauthapi

import (
	"net/url"

	"github.com/gin-gonic/gin"

	"wibusystem/oauth-provider/appstore"
)

// resolveClient looks up the client referenced by an /authorize-family
// request and checks its redirect_uri, writing an error response and
// returning ok=false on any failure. Because an invalid client_id or
// redirect_uri means there is no trustworthy place to send the user, these
// failures are always reported inline as JSON, never via redirect.
func (h *Handlers) resolveClient(c *gin.Context, clientID, redirectURI string) (*appstore.App, bool) {
	if clientID == "" || redirectURI == "" {
		invalidRequest(c, "client_id and redirect_uri are required")
		return nil, false
	}

	app, err := h.Apps.GetByClientID(c.Request.Context(), clientID)
	if err != nil {
		invalidRequest(c, "unknown client_id")
		return nil, false
	}

	if !app.HasRedirectURI(redirectURI) {
		invalidRequest(c, "redirect_uri is not registered for this client")
		return nil, false
	}

	return app, true
}

// Authorize handles GET /oauth/authorize. On success it forwards the
// caller's query verbatim to the frontend's login or consent page,
// depending on whether a session cookie is already present.
func (h *Handlers) Authorize(c *gin.Context) {
	responseType := c.Query("response_type")
	if responseType != "code" {
		unsupportedResponseType(c, responseType)
		return
	}

	if _, ok := h.resolveClient(c, c.Query("client_id"), c.Query("redirect_uri")); !ok {
		return
	}

	target := "/consent"
	if _, authenticated := h.Sessions.UserID(c); !authenticated {
		target = "/login"
	}

	c.Redirect(302, h.FrontendURL+target+"?"+c.Request.URL.RawQuery)
}

// AuthorizeInfoResponse is what the frontend consent page renders.
type AuthorizeInfoResponse struct {
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	IconURL          string      `json:"icon_url"`
	PrivacyPolicyURL string      `json:"privacy_policy_url"`
	Scopes           []ScopeInfo `json:"scopes"`
}

// ScopeInfo describes one requested scope for display on the consent page.
type ScopeInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Claims      []string `json:"claims"`
}

// AuthorizeInfo handles GET /oauth/authorize/info, returning app metadata
// and the definitions of the scopes actually requested (not the app's
// full scope list).
func (h *Handlers) AuthorizeInfo(c *gin.Context) {
	app, ok := h.resolveClient(c, c.Query("client_id"), c.Query("redirect_uri"))
	if !ok {
		return
	}

	requested := splitScope(c.Query("scope"))
	infos := make([]ScopeInfo, 0, len(requested))
	for _, name := range requested {
		if s, ok := scopeByName(name); ok {
			infos = append(infos, ScopeInfo{Name: s.Name, Description: s.Description, Claims: s.Claims})
		}
	}

	c.JSON(200, AuthorizeInfoResponse{
		Name:             app.Name,
		Description:      app.Description,
		IconURL:          app.IconURL,
		PrivacyPolicyURL: app.PrivacyPolicyURL,
		Scopes:           infos,
	})
}

// ConsentDecision handles POST /oauth/authorize/consent. The frontend posts
// the original authorize parameters back alongside the user's decision; the
// response is always JSON with a redirect_to URL, never an actual redirect,
// since the consent page is fetched cross-origin and cannot read a
// redirect response's Location header.
func (h *Handlers) ConsentDecision(c *gin.Context) {
	userID, authenticated := h.Sessions.UserID(c)
	if !authenticated {
		notAuthenticated(c)
		return
	}

	clientID := c.PostForm("client_id")
	redirectURI := c.PostForm("redirect_uri")
	scope := c.PostForm("scope")
	state := c.PostForm("state")
	approved := c.PostForm("approved") == "true"

	app, ok := h.resolveClient(c, clientID, redirectURI)
	if !ok {
		return
	}

	if !approved {
		c.JSON(200, gin.H{"redirect_to": denyRedirect(redirectURI, state)})
		return
	}

	if _, err := h.Users.GetByID(c.Request.Context(), userID); err != nil {
		// The session cookie is still validly signed, but the user it
		// names may since have been deleted; refuse to mint a code for it.
		userNotFound(c)
		return
	}

	granted := app.GrantableScopes(splitScope(scope))
	if !appstore.ValidScopeCatalog(granted) {
		invalidRequest(c, "requested scope includes an unrecognized value")
		return
	}

	code, err := h.Codes.Create(c.Request.Context(), authzcodeCreateParams(
		clientID, userID, redirectURI, granted, state,
		c.PostForm("code_challenge"), c.PostForm("code_challenge_method"),
	))
	if err != nil {
		invalidRequest(c, "failed to create authorization code")
		return
	}

	c.JSON(200, gin.H{"redirect_to": approveRedirect(redirectURI, code.Code, state)})
}

func denyRedirect(redirectURI, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	q := u.Query()
	q.Set("error", "access_denied")
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func approveRedirect(redirectURI, code, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func splitScope(scope string) []string {
	if scope == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(scope); i++ {
		if i == len(scope) || scope[i] == ' ' {
			if i > start {
				out = append(out, scope[start:i])
			}
			start = i + 1
		}
	}
	return out
}
