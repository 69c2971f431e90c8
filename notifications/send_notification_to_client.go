package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"eldertales_api/tools"
	"eldertales_api/types"

	"cloud.google.com/go/logging"
	"firebase.google.com/go/messaging"
)

// Sender is satisfied by *messaging.Client.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource looks up the FCM registration token of a user.
type TokenSource interface {
	GetRegistrationToken(ctx context.Context, userId string) (string, error)
}

const (
	KindLike    = "like"
	KindComment = "comment"
	KindFollow  = "follow"
)

// KnownKind reports whether kind is one of the notifications this service sends.
func KnownKind(kind string) bool {
	switch kind {
	case KindLike, KindComment, KindFollow:
		return true
	default:
		return false
	}
}

// Compose fills in the title and body shown on the recipient's device.
func Compose(data types.NotificationMessage, actorName string) types.NotificationMessage {
	if actorName == "" {
		actorName = "Someone"
	}

	switch data.Kind {
	case KindLike:
		data.Title = "New like"
		data.Body = actorName + " liked your post"
	case KindComment:
		data.Title = "New comment"
		data.Body = actorName + " commented on your post"
	case KindFollow:
		data.Title = "New follower"
		data.Body = actorName + " started following you"
	}
	return data
}

// SendNotificationToClient pushes data to the recipient's registered device. It returns an
// error wrapping types.ErrNotFound when the recipient never registered a device.
func SendNotificationToClient(ctx context.Context, client Sender, tokens TokenSource, logger tools.Logger, data types.NotificationMessage) error {
	// Get registration token of the recipient
	tokenStr, err := tokens.GetRegistrationToken(ctx, data.RecipientId)
	if err != nil {
		logger.Log(logging.Entry{
			Severity: logging.Info,
			Payload:  "No registration token for notification recipient",
			Labels:   map[string]string{"error": err.Error(), "recipient": data.RecipientId},
		})
		return err
	}

	// Convert the data struct to a JSON string
	dataJson, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error converting data to JSON: %w", err)
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: data.Title,
			Body:  data.Body,
		},
		Data:  map[string]string{"data": string(dataJson)},
		Token: tokenStr,
	}

	// Send a message to the device corresponding to the provided registration token.
	if _, err = client.Send(ctx, message); err != nil {
		logger.Log(logging.Entry{
			Severity: logging.Error,
			Payload:  "Error sending message to client",
			Labels:   map[string]string{"error": err.Error(), "recipient": data.RecipientId},
		})
		return fmt.Errorf("%w: error sending message to client: %v", types.ErrUnavailable, err)
	}

	return nil
}
