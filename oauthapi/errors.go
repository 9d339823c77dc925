package oauthapi

import "github.com/gin-gonic/gin"

// writeErr writes the standard OAuth error envelope and aborts the request.
func writeErr(c *gin.Context, status int, code, description string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

func invalidRequest(c *gin.Context, description string) {
	writeErr(c, 400, "invalid_request", description)
}

func invalidClient(c *gin.Context, description string) {
	writeErr(c, 401, "invalid_client", description)
}

func invalidGrant(c *gin.Context) {
	// Deliberately generic: the code-exchange path must not disclose which
	// of its ordered checks failed.
	writeErr(c, 400, "invalid_grant", "the provided authorization grant is invalid, expired, or was issued to another client")
}

func unsupportedGrantType(c *gin.Context, got string) {
	writeErr(c, 400, "unsupported_grant_type", "grant_type "+got+" is not supported")
}

func unsupportedResponseType(c *gin.Context, got string) {
	writeErr(c, 400, "unsupported_response_type", "response_type "+got+" is not supported")
}

func invalidToken(c *gin.Context, description string) {
	writeErr(c, 401, "invalid_token", description)
}

func notAuthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(401, gin.H{"error": "not_authenticated"})
}

func userNotFound(c *gin.Context) {
	c.AbortWithStatusJSON(401, gin.H{"error": "user_not_found"})
}
