package middlewares

import (
	"crypto/subtle"
	"fmt"

	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/gin-gonic/gin"
)

// TaskAuthMiddleware admits only requests carrying the shared task secret. Without a
// configured secret every request is refused.
func TaskAuthMiddleware(logger tools.Logger, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(types.TASK_SECRET_HEADER)
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			tools.LogError(logger, c, fmt.Errorf("%w: invalid task secret", types.ErrForbidden))
			return
		}
		c.Next()
	}
}
