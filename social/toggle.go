package social

import (
	"context"
	"errors"
	"fmt"

	"eldertales_api/events"
	"eldertales_api/store"
	"eldertales_api/types"
)

type Kind string

const (
	KindLike   Kind = "like"
	KindSave   Kind = "save"
	KindFollow Kind = "follow"
)

// Toggle flips the actor's membership in the target's set and returns the state after
// the flip. Count is the like count of the post, the actor's saved count, or the
// target's follower count.
func (s *Service) Toggle(ctx context.Context, kind Kind, actorId, targetId string) (types.ToggleResult, error) {
	return s.membership(ctx, kind, actorId, targetId, nil)
}

// SetMembership drives the membership to active. Adding an existing member is an
// invalid operation; removing a non-member succeeds without changes.
func (s *Service) SetMembership(ctx context.Context, kind Kind, actorId, targetId string, active bool) (types.ToggleResult, error) {
	return s.membership(ctx, kind, actorId, targetId, &active)
}

func (s *Service) membership(ctx context.Context, kind Kind, actorId, targetId string, want *bool) (types.ToggleResult, error) {
	if err := requireActor(actorId); err != nil {
		return types.ToggleResult{}, err
	}
	if targetId == "" {
		return types.ToggleResult{}, fmt.Errorf("%w: missing target", types.ErrInvalidArgument)
	}

	switch kind {
	case KindLike:
		return s.toggleLike(ctx, actorId, targetId, want)
	case KindSave:
		return s.toggleSave(ctx, actorId, targetId, want)
	case KindFollow:
		return s.toggleFollow(ctx, actorId, targetId, want)
	default:
		return types.ToggleResult{}, fmt.Errorf("%w: unknown toggle kind %q", types.ErrInvalidArgument, kind)
	}
}

// desiredState resolves the membership after the call. It fails when an explicit add
// targets an existing member.
func desiredState(kind Kind, member bool, want *bool) (bool, error) {
	if want == nil {
		return !member, nil
	}
	if *want && member {
		return false, fmt.Errorf("%w: already %s", types.ErrInvalidOperation, pastTense(kind))
	}
	return *want, nil
}

func pastTense(kind Kind) string {
	switch kind {
	case KindLike:
		return "liked"
	case KindSave:
		return "saved"
	default:
		return "following"
	}
}

func (s *Service) toggleLike(ctx context.Context, actorId, postId string, want *bool) (types.ToggleResult, error) {
	var result types.ToggleResult
	var ownerId string
	changed := false

	err := s.store.RunTransaction(ctx, store.Scope{Posts: []string{postId}}, func(ctx context.Context, tx store.Tx) error {
		changed = false
		post, err := tx.GetPost(postId)
		if err != nil {
			return err
		}
		ownerId = post.OwnerId

		active, err := desiredState(KindLike, contains(post.Likes, actorId), want)
		if err != nil {
			return err
		}

		if active {
			post.Likes, changed = addMember(post.Likes, actorId)
		} else {
			post.Likes, changed = removeMember(post.Likes, actorId)
		}

		result = types.ToggleResult{Active: active, Count: post.LikesCount()}
		if !changed {
			return nil
		}
		return tx.SetPost(post)
	})
	if err != nil {
		return types.ToggleResult{}, storeError(err)
	}

	if changed {
		subject := events.PostUnliked
		if result.Active {
			subject = events.PostLiked
		}
		s.publish(ctx, events.Event{Subject: subject, ActorId: actorId, RecipientId: ownerId, PostId: postId, Count: result.Count})
	}
	return result, nil
}

func (s *Service) toggleSave(ctx context.Context, actorId, postId string, want *bool) (types.ToggleResult, error) {
	var result types.ToggleResult
	changed := false

	scope := store.Scope{Posts: []string{postId}, Users: []string{actorId}}
	err := s.store.RunTransaction(ctx, scope, func(ctx context.Context, tx store.Tx) error {
		changed = false
		_, postErr := tx.GetPost(postId)
		if postErr != nil && !errors.Is(postErr, types.ErrNotFound) {
			return postErr
		}

		user, err := tx.GetUser(actorId)
		if err != nil {
			return err
		}

		member := contains(user.SavedPosts, postId)
		active, err := desiredState(KindSave, member, want)
		if err != nil {
			return err
		}

		// A deleted post can still be unsaved, never saved.
		if postErr != nil && active {
			return postErr
		}

		if active {
			user.SavedPosts, changed = addMember(user.SavedPosts, postId)
		} else {
			user.SavedPosts, changed = removeMember(user.SavedPosts, postId)
		}

		result = types.ToggleResult{Active: active, Count: len(user.SavedPosts)}
		if !changed {
			return nil
		}
		user.UpdatedAt = s.timestamp()
		return tx.SetUser(user)
	})
	if err != nil {
		return types.ToggleResult{}, storeError(err)
	}

	if changed {
		subject := events.PostUnsaved
		if result.Active {
			subject = events.PostSaved
		}
		s.publish(ctx, events.Event{Subject: subject, ActorId: actorId, PostId: postId, Count: result.Count})
	}
	return result, nil
}

func (s *Service) toggleFollow(ctx context.Context, actorId, targetId string, want *bool) (types.ToggleResult, error) {
	if actorId == targetId {
		return types.ToggleResult{}, fmt.Errorf("%w: users cannot follow themselves", types.ErrInvalidOperation)
	}

	var result types.ToggleResult
	changed := false

	err := s.store.RunTransaction(ctx, store.Scope{Users: []string{actorId, targetId}}, func(ctx context.Context, tx store.Tx) error {
		changed = false
		actor, err := tx.GetUser(actorId)
		if err != nil {
			return err
		}
		target, err := tx.GetUser(targetId)
		if err != nil {
			return err
		}

		active, err := desiredState(KindFollow, contains(actor.Following, targetId), want)
		if err != nil {
			return err
		}

		// Both sides end in the same state, even if they disagreed before.
		var followingChanged, followersChanged bool
		if active {
			actor.Following, followingChanged = addMember(actor.Following, targetId)
			target.Followers, followersChanged = addMember(target.Followers, actorId)
		} else {
			actor.Following, followingChanged = removeMember(actor.Following, targetId)
			target.Followers, followersChanged = removeMember(target.Followers, actorId)
		}

		result = types.ToggleResult{Active: active, Count: len(target.Followers)}
		changed = followingChanged || followersChanged
		if !changed {
			return nil
		}

		now := s.timestamp()
		actor.UpdatedAt = now
		target.UpdatedAt = now
		if err := tx.SetUser(actor); err != nil {
			return err
		}
		return tx.SetUser(target)
	})
	if err != nil {
		return types.ToggleResult{}, storeError(err)
	}

	if changed {
		subject := events.UserUnfollowed
		if result.Active {
			subject = events.UserFollowed
		}
		s.publish(ctx, events.Event{Subject: subject, ActorId: actorId, RecipientId: targetId, Count: result.Count})
	}
	return result, nil
}
