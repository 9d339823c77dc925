package oauthapi

import (
	"github.com/gin-gonic/gin"
	"github.com/ory/fosite"

	"wibusystem/oauth-provider/middleware"
)

// UserInfo handles GET /oauth/userinfo. It runs behind h.Auth.RequireAuth,
// which has already introspected the bearer token; the claims returned are
// gated by the scopes that token actually carries, not by what the client
// asks for.
func (h *Handlers) UserInfo(c *gin.Context) {
	result, ok := middleware.GetIntrospectionFromContext(c)
	if !ok {
		invalidToken(c, "missing bearer token")
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		invalidToken(c, "token is not bound to a user")
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		invalidToken(c, "token subject no longer exists")
		return
	}

	granted := fosite.Arguments(splitScope(result.Scope))
	claims := gin.H{"sub": user.ID.String()}

	if granted.Has("email") {
		claims["email"] = user.Email
		claims["email_verified"] = true
	}
	if granted.Has("profile") {
		claims["name"] = user.DisplayName
		claims["picture"] = user.AvatarURL
		claims["bio"] = user.Bio
	}
	if granted.Has("cohort") {
		claims["cohort"] = user.Cohort
	}
	if granted.Has("socials") {
		socials := user.Socials
		if socials == nil {
			socials = map[string]string{}
		}
		claims["socials"] = socials
	}
	if granted.Has("wallet") {
		claims["wallet_address"] = user.WalletAddress
	}
	if granted.Has("activity") {
		claims["posts_count"] = 0
		claims["streak_days"] = 0
		claims["last_active"] = nil
	}

	c.JSON(200, claims)
}
