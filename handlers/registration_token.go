package handlers

import (
	"fmt"
	"net/http"

	"eldertales_api/middlewares"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/gin-gonic/gin"
)

// SetMessagingRegistrationToken stores the caller's FCM registration token, replacing
// any earlier one.
func SetMessagingRegistrationToken(logger tools.Logger, contentStore store.ContentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RegistrationTokenRequest
		if err := c.ShouldBind(&req); err != nil {
			tools.LogError(logger, c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
			return
		}

		err := contentStore.SetRegistrationToken(c, middlewares.ActorId(c), req.ClientId, req.Token)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, nil, "Registration token saved")
	}
}
