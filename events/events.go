// Package events fans committed social mutations out to subscribers.
package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	PostCreated    = "post.created"
	PostUpdated    = "post.updated"
	PostDeleted    = "post.deleted"
	PostLiked      = "post.liked"
	PostUnliked    = "post.unliked"
	PostSaved      = "post.saved"
	PostUnsaved    = "post.unsaved"
	UserFollowed   = "user.followed"
	UserUnfollowed = "user.unfollowed"
	UserRegistered = "user.registered"
	CommentCreated = "comment.created"
	CommentUpdated = "comment.updated"
	CommentDeleted = "comment.deleted"
)

// Event describes one committed mutation. RecipientId is the user the mutation concerns
// besides the actor: the post owner for likes and comments, the followed user for follows.
type Event struct {
	Subject     string    `json:"subject"`
	ActorId     string    `json:"actor_id"`
	RecipientId string    `json:"recipient_id,omitempty"`
	PostId      string    `json:"post_id,omitempty"`
	CommentId   string    `json:"comment_id,omitempty"`
	Count       int       `json:"count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// Subjects returns the subjects of the recorded events in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	subjects := make([]string, 0, len(r.events))
	for _, e := range r.events {
		subjects = append(subjects, e.Subject)
	}
	return subjects
}
