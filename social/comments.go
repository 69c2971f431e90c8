package social

import (
	"context"
	"fmt"
	"strings"

	"eldertales_api/events"
	"eldertales_api/store"
	"eldertales_api/tools"
	"eldertales_api/types"
)

func commentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: comment content is required", types.ErrInvalidArgument)
	}
	return content, nil
}

func findComment(post *types.Post, commentId string) (int, error) {
	for i, comment := range post.Comments {
		if comment.Id == commentId {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: comment %s", types.ErrNotFound, commentId)
}

// AddComment appends a comment by the actor to the post.
func (s *Service) AddComment(ctx context.Context, actorId, postId, content string) (types.Comment, error) {
	if err := requireActor(actorId); err != nil {
		return types.Comment{}, err
	}
	content, err := commentContent(content)
	if err != nil {
		return types.Comment{}, err
	}

	var comment types.Comment
	var ownerId string

	scope := store.Scope{Posts: []string{postId}, Users: []string{actorId}}
	err = s.store.RunTransaction(ctx, scope, func(ctx context.Context, tx store.Tx) error {
		post, err := tx.GetPost(postId)
		if err != nil {
			return err
		}
		author, err := tx.GetUser(actorId)
		if err != nil {
			return err
		}
		ownerId = post.OwnerId

		now := s.timestamp()
		comment = types.Comment{
			Id:         tools.NewID(),
			AuthorId:   actorId,
			AuthorName: author.Name,
			Content:    content,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		post.Comments = append(post.Comments, comment)
		return tx.SetPost(post)
	})
	if err != nil {
		return types.Comment{}, storeError(err)
	}

	s.publish(ctx, events.Event{Subject: events.CommentCreated, ActorId: actorId, RecipientId: ownerId, PostId: postId, CommentId: comment.Id})
	return comment, nil
}

// EditComment replaces the content of the actor's own comment.
func (s *Service) EditComment(ctx context.Context, actorId, postId, commentId, content string) (types.Comment, error) {
	if err := requireActor(actorId); err != nil {
		return types.Comment{}, err
	}
	content, err := commentContent(content)
	if err != nil {
		return types.Comment{}, err
	}

	var comment types.Comment
	err = s.store.RunTransaction(ctx, store.Scope{Posts: []string{postId}}, func(ctx context.Context, tx store.Tx) error {
		post, err := tx.GetPost(postId)
		if err != nil {
			return err
		}

		i, err := findComment(post, commentId)
		if err != nil {
			return err
		}
		if post.Comments[i].AuthorId != actorId {
			return fmt.Errorf("%w: only the author can edit this comment", types.ErrForbidden)
		}

		post.Comments[i].Content = content
		post.Comments[i].UpdatedAt = s.timestamp()
		comment = post.Comments[i]
		return tx.SetPost(post)
	})
	if err != nil {
		return types.Comment{}, storeError(err)
	}

	s.publish(ctx, events.Event{Subject: events.CommentUpdated, ActorId: actorId, PostId: postId, CommentId: commentId})
	return comment, nil
}

// DeleteComment removes the actor's own comment.
func (s *Service) DeleteComment(ctx context.Context, actorId, postId, commentId string) error {
	if err := requireActor(actorId); err != nil {
		return err
	}

	err := s.store.RunTransaction(ctx, store.Scope{Posts: []string{postId}}, func(ctx context.Context, tx store.Tx) error {
		post, err := tx.GetPost(postId)
		if err != nil {
			return err
		}

		i, err := findComment(post, commentId)
		if err != nil {
			return err
		}
		if post.Comments[i].AuthorId != actorId {
			return fmt.Errorf("%w: only the author can delete this comment", types.ErrForbidden)
		}

		post.Comments = append(post.Comments[:i], post.Comments[i+1:]...)
		return tx.SetPost(post)
	})
	if err != nil {
		return storeError(err)
	}

	s.publish(ctx, events.Event{Subject: events.CommentDeleted, ActorId: actorId, PostId: postId, CommentId: commentId})
	return nil
}
