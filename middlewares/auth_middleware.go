package middlewares

import (
	"fmt"
	"strings"

	"eldertales_api/identity"
	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the caller's token and stores the actor id in the context.
func AuthMiddleware(logger tools.Logger, verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract the token from the Authorization header or cookie
		idToken := extractToken(c)
		if idToken == "" {
			tools.LogError(logger, c, fmt.Errorf("%w: no ID token provided", types.ErrUnauthorized))
			return
		}

		actorId, err := verifier.Verify(c.Request.Context(), idToken)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}
		if actorId == "" {
			tools.LogError(logger, c, fmt.Errorf("%w: token carries no user", types.ErrUnauthorized))
			return
		}

		c.Set(types.CONTEXT_ACTOR_ID_KEY, actorId)
		c.Next()
	}
}

// ActorId returns the id AuthMiddleware stored, or "" on unauthenticated routes.
func ActorId(c *gin.Context) string {
	return c.GetString(types.CONTEXT_ACTOR_ID_KEY)
}

// Extracts token from the Authorization header or cookie.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	// Fallback to cookies
	for _, name := range []string{"accessToken", "__session"} {
		if cookie, err := c.Cookie(name); err == nil && cookie != "" {
			return cookie
		}
	}
	return ""
}
