package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eldertales_api/blob"
	"eldertales_api/events"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"

	"cloud.google.com/go/logging"
)

func checkMediaCount(blobs []types.MediaBlob) error {
	if len(blobs) > types.MAX_MEDIA_PER_POST {
		return fmt.Errorf("%w: a post holds at most %d media files", types.ErrInvalidArgument, types.MAX_MEDIA_PER_POST)
	}
	return nil
}

var errEmptyPost = fmt.Errorf("%w: a post needs a description or media", types.ErrInvalidArgument)

func checkNotEmpty(description string, media []string) error {
	if description == "" && len(media) == 0 {
		return errEmptyPost
	}
	return nil
}

// upload stores every blob. On failure the blobs already stored are removed again.
func (s *Service) upload(ctx context.Context, blobs []types.MediaBlob) ([]string, []string, error) {
	urls := make([]string, 0, len(blobs))
	paths := make([]string, 0, len(blobs))

	for _, b := range blobs {
		stored, err := s.blobs.Upload(ctx, b)
		if err != nil {
			blob.DeleteAll(context.WithoutCancel(ctx), s.blobs, s.logger, paths)
			return nil, nil, storeError(err)
		}
		urls = append(urls, stored.URL)
		paths = append(paths, stored.Path)
	}
	return urls, paths, nil
}

// CreatePost uploads the media, then inserts the post and links it to its owner in one
// transaction.
func (s *Service) CreatePost(ctx context.Context, actorId, description string, blobs []types.MediaBlob) (*types.Post, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" && len(blobs) == 0 {
		return nil, errEmptyPost
	}
	if err := checkMediaCount(blobs); err != nil {
		return nil, err
	}

	urls, paths, err := s.upload(ctx, blobs)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	post := &types.Post{
		Id:          tools.NewID(),
		Description: description,
		Media:       urls,
		MediaPaths:  paths,
		OwnerId:     actorId,
		Likes:       []string{},
		Comments:    []types.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	scope := store.Scope{Posts: []string{post.Id}, Users: []string{actorId}}
	err = s.store.RunTransaction(ctx, scope, func(ctx context.Context, tx store.Tx) error {
		owner, err := tx.GetUser(actorId)
		if err != nil {
			return err
		}

		owner.Posts, _ = addMember(owner.Posts, post.Id)
		owner.UpdatedAt = now
		if err := tx.SetPost(post); err != nil {
			return err
		}
		return tx.SetUser(owner)
	})
	if err != nil {
		blob.DeleteAll(context.WithoutCancel(ctx), s.blobs, s.logger, paths)
		return nil, storeError(err)
	}

	s.publish(ctx, events.Event{Subject: events.PostCreated, ActorId: actorId, PostId: post.Id})
	return post, nil
}

// UpdatePost edits the actor's own post. A nil description keeps the current one and
// a non-empty blobs list replaces all media.
func (s *Service) UpdatePost(ctx context.Context, actorId, postId string, description *string, blobs []types.MediaBlob) (*types.Post, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}
	if err := checkMediaCount(blobs); err != nil {
		return nil, err
	}

	// Reject foreign posts before spending an upload on them.
	current, err := s.store.GetPost(ctx, postId)
	if err != nil {
		return nil, storeError(err)
	}
	if current.OwnerId != actorId {
		return nil, fmt.Errorf("%w: only the owner can edit this post", types.ErrForbidden)
	}

	var urls, paths []string
	if len(blobs) > 0 {
		if urls, paths, err = s.upload(ctx, blobs); err != nil {
			return nil, err
		}
	}

	var updated *types.Post
	var replacedPaths []string

	err = s.store.RunTransaction(ctx, store.Scope{Posts: []string{postId}}, func(ctx context.Context, tx store.Tx) error {
		post, err := tx.GetPost(postId)
		if err != nil {
			return err
		}
		if post.OwnerId != actorId {
			return fmt.Errorf("%w: only the owner can edit this post", types.ErrForbidden)
		}

		if description != nil {
			post.Description = strings.TrimSpace(*description)
		}
		replacedPaths = nil
		if len(urls) > 0 {
			replacedPaths = post.MediaPaths
			post.Media = urls
			post.MediaPaths = paths
		}
		if err := checkNotEmpty(post.Description, post.Media); err != nil {
			return err
		}

		post.UpdatedAt = s.timestamp()
		updated = post
		return tx.SetPost(post)
	})
	if err != nil {
		blob.DeleteAll(context.WithoutCancel(ctx), s.blobs, s.logger, paths)
		return nil, storeError(err)
	}

	blob.DeleteAll(context.WithoutCancel(ctx), s.blobs, s.logger, replacedPaths)
	s.publish(ctx, events.Event{Subject: events.PostUpdated, ActorId: actorId, PostId: postId})
	return updated, nil
}

// DeletePost removes the actor's own post and unlinks it from its owner atomically. Saved
// references and media are cleaned up afterwards on a best-effort basis.
func (s *Service) DeletePost(ctx context.Context, actorId, postId string) error {
	if err := requireActor(actorId); err != nil {
		return err
	}

	var mediaPaths []string
	scope := store.Scope{Posts: []string{postId}, Users: []string{actorId}}
	err := s.store.RunTransaction(ctx, scope, func(ctx context.Context, tx store.Tx) error {
		post, err := tx.GetPost(postId)
		if err != nil {
			return err
		}
		if post.OwnerId != actorId {
			return fmt.Errorf("%w: only the owner can delete this post", types.ErrForbidden)
		}
		mediaPaths = post.MediaPaths

		owner, err := tx.GetUser(actorId)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return err
		}

		if err := tx.DeletePost(postId); err != nil {
			return err
		}
		if owner == nil {
			return nil
		}
		owner.Posts, _ = removeMember(owner.Posts, postId)
		owner.UpdatedAt = s.timestamp()
		return tx.SetUser(owner)
	})
	if err != nil {
		return storeError(err)
	}

	cleanupCtx := context.WithoutCancel(ctx)
	s.unsaveEverywhere(cleanupCtx, postId)
	blob.DeleteAll(cleanupCtx, s.blobs, s.logger, mediaPaths)

	s.publish(ctx, events.Event{Subject: events.PostDeleted, ActorId: actorId, PostId: postId})
	return nil
}

// unsaveEverywhere drops postId from every saved list, one user per transaction.
func (s *Service) unsaveEverywhere(ctx context.Context, postId string) {
	userIds, err := s.store.UsersSavingPost(ctx, postId)
	if err != nil {
		s.logger.Log(logging.Entry{
			Severity: logging.Warning,
			Payload:  "Error listing users saving post " + postId,
			Labels:   map[string]string{"error": err.Error()},
		})
		return
	}

	for _, userId := range userIds {
		err := s.store.RunTransaction(ctx, store.Scope{Users: []string{userId}}, func(ctx context.Context, tx store.Tx) error {
			user, err := tx.GetUser(userId)
			if err != nil {
				return err
			}

			var removed bool
			user.SavedPosts, removed = removeMember(user.SavedPosts, postId)
			if !removed {
				return nil
			}
			return tx.SetUser(user)
		})
		if err != nil {
			s.logger.Log(logging.Entry{
				Severity: logging.Warning,
				Payload:  "Error removing deleted post from saved list",
				Labels:   map[string]string{"error": err.Error(), "user": userId, "post": postId},
			})
		}
	}
}
