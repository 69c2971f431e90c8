package types

// NotificationMessage is the Cloud Tasks payload for one push notification.
type NotificationMessage struct {
	Kind        string `json:"kind"`
	RecipientId string `json:"recipientId"`
	ActorId     string `json:"actorId"`
	PostId      string `json:"postId,omitempty"`
	CommentId   string `json:"commentId,omitempty"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}
