package tasks

import (
	"errors"
	"fmt"
	"net/http"

	"eldertales_api/notifications"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/gin-gonic/gin"
)

// NotificationTaskHandler receives Cloud Tasks callbacks and sends one push notification.
// A recipient without a registered device is acknowledged so the task is not retried.
func NotificationTaskHandler(logger tools.Logger, sender notifications.Sender, contentStore store.ContentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var message types.NotificationMessage
		if err := c.ShouldBindJSON(&message); err != nil {
			tools.LogError(logger, c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
			return
		}
		if message.RecipientId == "" || message.Kind == "" {
			tools.LogError(logger, c, fmt.Errorf("%w: recipient and kind are required", types.ErrInvalidArgument))
			return
		}
		if !notifications.KnownKind(message.Kind) {
			tools.LogError(logger, c, fmt.Errorf("%w: unknown notification kind %q", types.ErrInvalidArgument, message.Kind))
			return
		}

		actorName := ""
		if actor, err := contentStore.GetUser(c, message.ActorId); err == nil {
			actorName = actor.Name
		}
		message = notifications.Compose(message, actorName)

		err := notifications.SendNotificationToClient(c, sender, contentStore, logger, message)
		if errors.Is(err, types.ErrNotFound) {
			tools.Respond(c, http.StatusOK, gin.H{"sent": false}, "Recipient has no registered device")
			return
		}
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, gin.H{"sent": true}, "Notification sent")
	}
}
