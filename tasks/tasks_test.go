package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eldertales_api/events"
	"eldertales_api/notifications"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"firebase.google.com/go/messaging"
	"github.com/gin-gonic/gin"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTasks struct {
	requests []*taskspb.CreateTaskRequest
	err      error
}

func (f *fakeTasks) CreateTask(ctx context.Context, req *taskspb.CreateTaskRequest, opts ...gax.CallOption) (*taskspb.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &taskspb.Task{Name: "task"}, nil
}

type fakeSender struct {
	messages []*messaging.Message
	err      error
}

func (f *fakeSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, message)
	return "id", nil
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	cfg := QueueConfig{ProjectID: "p", LocationID: "europe-west1", QueueID: "notifications", ServiceURL: "https://api.example.com", Secret: "s3cret"}
	logger := tools.NewConsoleLogger(io.Discard)

	t.Run("like becomes a task for the post owner", func(t *testing.T) {
		client := &fakeTasks{}
		n := NewNotifier(client, logger, cfg)

		err := n.Publish(ctx, events.Event{Subject: events.PostLiked, ActorId: "a", RecipientId: "b", PostId: "p1"})
		require.NoError(t, err)
		require.Len(t, client.requests, 1)

		req := client.requests[0]
		assert.Equal(t, "projects/p/locations/europe-west1/queues/notifications", req.Parent)
		httpReq := req.Task.GetHttpRequest()
		assert.Equal(t, "https://api.example.com"+types.CLOUD_TASKS_HANDLER_PATH, httpReq.Url)
		assert.Equal(t, "s3cret", httpReq.Headers[types.TASK_SECRET_HEADER])

		var message types.NotificationMessage
		require.NoError(t, json.Unmarshal(httpReq.Body, &message))
		assert.Equal(t, types.NotificationMessage{Kind: notifications.KindLike, RecipientId: "b", ActorId: "a", PostId: "p1"}, message)
	})

	t.Run("other events and self actions are ignored", func(t *testing.T) {
		client := &fakeTasks{}
		n := NewNotifier(client, logger, cfg)

		require.NoError(t, n.Publish(ctx, events.Event{Subject: events.PostUnliked, ActorId: "a", RecipientId: "b"}))
		require.NoError(t, n.Publish(ctx, events.Event{Subject: events.PostLiked, ActorId: "a", RecipientId: "a"}))
		require.NoError(t, n.Publish(ctx, events.Event{Subject: events.CommentCreated, ActorId: "a"}))
		assert.Empty(t, client.requests)
	})

	t.Run("queue errors are returned", func(t *testing.T) {
		n := NewNotifier(&fakeTasks{err: errors.New("quota")}, logger, cfg)
		err := n.Publish(ctx, events.Event{Subject: events.UserFollowed, ActorId: "a", RecipientId: "b"})
		assert.Error(t, err)
	})
}

func TestNotificationTaskHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := tools.NewConsoleLogger(io.Discard)

	contentStore := store.NewMemoryStore()
	err := contentStore.RunTransaction(ctx, store.Scope{Users: []string{"a"}}, func(ctx context.Context, tx store.Tx) error {
		return tx.SetUser(&types.User{Id: "a", Name: "alice"})
	})
	require.NoError(t, err)
	require.NoError(t, contentStore.SetRegistrationToken(ctx, "b", "ios", "device-token"))

	serve := func(sender notifications.Sender, body string) *httptest.ResponseRecorder {
		r := gin.New()
		r.POST(types.CLOUD_TASKS_HANDLER_PATH, NotificationTaskHandler(logger, sender, contentStore))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, types.CLOUD_TASKS_HANDLER_PATH, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("sends to the recipient device", func(t *testing.T) {
		sender := &fakeSender{}
		w := serve(sender, `{"kind":"follow","recipientId":"b","actorId":"a"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, sender.messages, 1)
		assert.Equal(t, "device-token", sender.messages[0].Token)
		assert.Equal(t, "alice started following you", sender.messages[0].Notification.Body)
	})

	t.Run("recipient without device is acknowledged", func(t *testing.T) {
		sender := &fakeSender{}
		w := serve(sender, `{"kind":"like","recipientId":"nobody","actorId":"a"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sender.messages)
	})

	t.Run("send failure asks for a retry", func(t *testing.T) {
		w := serve(&fakeSender{err: errors.New("fcm down")}, `{"kind":"like","recipientId":"b","actorId":"a"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("malformed payload", func(t *testing.T) {
		w := serve(&fakeSender{}, `{"kind":"like"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown kind is not sent", func(t *testing.T) {
		sender := &fakeSender{}
		w := serve(sender, `{"kind":"promo","recipientId":"b","actorId":"a","title":"You won","body":"click here"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, sender.messages)
	})
}
