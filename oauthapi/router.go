package oauthapi

import "github.com/gin-gonic/gin"

// Register attaches every route this package serves to engine.
func (h *Handlers) Register(engine *gin.Engine) {
	oauth := engine.Group("/oauth")
	{
		oauth.GET("/authorize", h.Authorize)
		oauth.GET("/authorize/info", h.AuthorizeInfo)
		oauth.POST("/authorize/consent", h.ConsentDecision)
		oauth.POST("/token", h.Token)
		oauth.GET("/userinfo", h.Auth.RequireAuth(), h.Auth.RequireScope("openid"), h.UserInfo)
		oauth.POST("/token/introspect", h.Introspect)
		oauth.POST("/token/revoke", h.Revoke)
	}

	auth := engine.Group("/auth")
	{
		auth.POST("/login/broker", h.LoginWithBroker)
		auth.GET("/me", h.Me)
		auth.POST("/logout", h.Logout)
	}
}
