package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"eldertales_api/events"
	"eldertales_api/notifications"
	"eldertales_api/tools"
	"eldertales_api/types"

	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"cloud.google.com/go/logging"
	"github.com/googleapis/gax-go/v2"
)

// TaskCreator is satisfied by *cloudtasks.Client.
type TaskCreator interface {
	CreateTask(ctx context.Context, req *taskspb.CreateTaskRequest, opts ...gax.CallOption) (*taskspb.Task, error)
}

type QueueConfig struct {
	ProjectID  string
	LocationID string
	QueueID    string
	// ServiceURL is the public base URL of this service; tasks call back into it.
	ServiceURL string
	// Secret is sent in X-Task-Secret so the handler can tell queue calls apart.
	Secret string
}

// Notifier turns like, comment and follow events into push-notification tasks for the
// user on the receiving end.
type Notifier struct {
	client    TaskCreator
	logger    tools.Logger
	queuePath string
	targetURL string
	secret    string
}

func NewNotifier(client TaskCreator, logger tools.Logger, cfg QueueConfig) *Notifier {
	return &Notifier{
		client:    client,
		logger:    logger,
		queuePath: fmt.Sprintf(types.CLOUD_TASKS_QUEUE_PATH_TEMPLATE, cfg.ProjectID, cfg.LocationID, cfg.QueueID),
		targetURL: cfg.ServiceURL + types.CLOUD_TASKS_HANDLER_PATH,
		secret:    cfg.Secret,
	}
}

func notificationKind(subject string) string {
	switch subject {
	case events.PostLiked:
		return notifications.KindLike
	case events.CommentCreated:
		return notifications.KindComment
	case events.UserFollowed:
		return notifications.KindFollow
	default:
		return ""
	}
}

func (n *Notifier) Publish(ctx context.Context, event events.Event) error {
	kind := notificationKind(event.Subject)
	if kind == "" || event.RecipientId == "" || event.RecipientId == event.ActorId {
		return nil
	}

	_, err := n.CreateTask(ctx, types.NotificationMessage{
		Kind:        kind,
		RecipientId: event.RecipientId,
		ActorId:     event.ActorId,
		PostId:      event.PostId,
		CommentId:   event.CommentId,
	})
	return err
}

// CreateTask enqueues one notification on the queue.
func (n *Notifier) CreateTask(ctx context.Context, message types.NotificationMessage) (*taskspb.Task, error) {
	// Serialize the notification to JSON
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if n.secret != "" {
		headers[types.TASK_SECRET_HEADER] = n.secret
	}

	req := &taskspb.CreateTaskRequest{
		Parent: n.queuePath,
		Task: &taskspb.Task{
			MessageType: &taskspb.Task_HttpRequest{
				HttpRequest: &taskspb.HttpRequest{
					HttpMethod: taskspb.HttpMethod_POST,
					Url:        n.targetURL,
					Headers:    headers,
					Body:       payload,
				},
			},
		},
	}

	createdTask, err := n.client.CreateTask(ctx, req)
	if err != nil {
		n.logger.Log(logging.Entry{
			Severity: logging.Error,
			Payload:  "Error creating notification task",
			Labels:   map[string]string{"error": err.Error(), "kind": message.Kind},
		})
		return nil, err
	}

	return createdTask, nil
}
