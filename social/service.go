// Package social is the interaction engine: membership toggles, the comment ledger, post
// lifecycle and the actor-relative feed. Every mutation is one content-store transaction;
// events go out only after it commits.
package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eldertales_api/blob"
	"eldertales_api/events"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	"cloud.google.com/go/logging"
)

type Service struct {
	store     store.ContentStore
	blobs     blob.Store
	publisher events.Publisher
	logger    tools.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(contentStore store.ContentStore, blobs blob.Store, publisher events.Publisher, logger tools.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Service{
		store:     contentStore,
		blobs:     blobs,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// publish sends a committed event. Failures are logged and never reach the caller.
func (s *Service) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.timestamp()
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Log(logging.Entry{
			Severity: logging.Warning,
			Payload:  "Error publishing event " + event.Subject,
			Labels:   map[string]string{"error": err.Error(), "actor": event.ActorId},
		})
	}
}

func requireActor(actorId string) error {
	if actorId == "" {
		return fmt.Errorf("%w: missing actor", types.ErrUnauthorized)
	}
	return nil
}

var kinds = []error{
	types.ErrNotFound,
	types.ErrForbidden,
	types.ErrInvalidOperation,
	types.ErrInvalidArgument,
	types.ErrUnauthorized,
	types.ErrConflict,
	types.ErrUnavailable,
}

// storeError passes domain errors through and reports anything else as unavailable.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", types.ErrUnavailable, err)
}
