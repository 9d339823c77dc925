package oauthapi

import "github.com/gin-gonic/gin"

type loginRequest struct {
	Token string `json:"token" binding:"required"`
}

// LoginWithBroker handles POST /auth/login/broker. The frontend hands over
// the identity token the broker issued after its own login UI; this
// verifies it, just-in-time provisions a local user, and sets the session
// cookie the rest of this service relies on.
func (h *Handlers) LoginWithBroker(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "token is required")
		return
	}

	subject, err := h.Broker.Verify(req.Token)
	if err != nil {
		invalidToken(c, "broker token verification failed")
		return
	}

	email := ""
	if profile := h.Broker.FetchProfile(subject); profile != nil {
		email = profile.Email
	}

	user, err := h.Users.GetOrCreateFromBroker(c.Request.Context(), subject, email, "")
	if err != nil {
		invalidRequest(c, "failed to provision user")
		return
	}

	if err := h.Sessions.SetCookie(c, user.ID); err != nil {
		invalidRequest(c, "failed to establish session")
		return
	}

	c.JSON(200, gin.H{"id": user.ID, "email": user.Email, "display_name": user.DisplayName})
}

// Me handles GET /auth/me, returning the session's current user.
func (h *Handlers) Me(c *gin.Context) {
	userID, authenticated := h.Sessions.UserID(c)
	if !authenticated {
		notAuthenticated(c)
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		userNotFound(c)
		return
	}

	c.JSON(200, gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
	})
}

// Logout handles POST /auth/logout, clearing the session cookie.
func (h *Handlers) Logout(c *gin.Context) {
	h.Sessions.ClearCookie(c)
	c.JSON(200, gin.H{})
}
