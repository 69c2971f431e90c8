package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	"firebase.google.com/go/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []*messaging.Message
	err      error
}

func (s *recordingSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.messages = append(s.messages, message)
	return "projects/p/messages/1", nil
}

func TestCompose(t *testing.T) {
	tests := []struct {
		kind string
		body string
	}{
		{kind: KindLike, body: "alice liked your post"},
		{kind: KindComment, body: "alice commented on your post"},
		{kind: KindFollow, body: "alice started following you"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			msg := Compose(types.NotificationMessage{Kind: tt.kind}, "alice")
			assert.Equal(t, tt.body, msg.Body)
			assert.NotEmpty(t, msg.Title)
		})
	}

	t.Run("unknown actor", func(t *testing.T) {
		msg := Compose(types.NotificationMessage{Kind: KindLike}, "")
		assert.Equal(t, "Someone liked your post", msg.Body)
	})
}

func TestSendNotificationToClient(t *testing.T) {
	ctx := context.Background()
	logger := tools.NewConsoleLogger(io.Discard)
	tokens := store.NewMemoryStore()
	require.NoError(t, tokens.SetRegistrationToken(ctx, "b", "android", "device-b"))

	data := Compose(types.NotificationMessage{Kind: KindFollow, RecipientId: "b", ActorId: "a"}, "alice")

	t.Run("sends to the registered device", func(t *testing.T) {
		sender := &recordingSender{}
		require.NoError(t, SendNotificationToClient(ctx, sender, tokens, logger, data))
		require.Len(t, sender.messages, 1)

		msg := sender.messages[0]
		assert.Equal(t, "device-b", msg.Token)
		assert.Equal(t, "New follower", msg.Notification.Title)

		var payload types.NotificationMessage
		require.NoError(t, json.Unmarshal([]byte(msg.Data["data"]), &payload))
		assert.Equal(t, data, payload)
	})

	t.Run("recipient without a device", func(t *testing.T) {
		missing := data
		missing.RecipientId = "c"
		err := SendNotificationToClient(ctx, &recordingSender{}, tokens, logger, missing)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("send failure", func(t *testing.T) {
		err := SendNotificationToClient(ctx, &recordingSender{err: errors.New("quota")}, tokens, logger, data)
		assert.ErrorIs(t, err, types.ErrUnavailable)
	})
}
