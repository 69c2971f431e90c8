package social

import (
	"context"
	"testing"

	"eldertales_api/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a", "Alice")
	f.register(t, "b", "Bob")
	post := f.post(t, "a", "Hello")

	comment, err := f.svc.AddComment(ctx, "b", post.Id, "  lovely  ")
	require.NoError(t, err)
	assert.Equal(t, "lovely", comment.Content)
	assert.Equal(t, "b", comment.AuthorId)
	assert.Equal(t, "bob", comment.AuthorName)

	t.Run("blank content is rejected", func(t *testing.T) {
		_, err := f.svc.AddComment(ctx, "b", post.Id, "   ")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.svc.AddComment(ctx, "b", "missing", "hi")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("only the author edits", func(t *testing.T) {
		_, err := f.svc.EditComment(ctx, "a", post.Id, comment.Id, "hijacked")
		assert.ErrorIs(t, err, types.ErrForbidden)

		stored, err := f.store.GetPost(ctx, post.Id)
		require.NoError(t, err)
		assert.Equal(t, "lovely", stored.Comments[0].Content)

		edited, err := f.svc.EditComment(ctx, "b", post.Id, comment.Id, "really lovely")
		require.NoError(t, err)
		assert.Equal(t, "really lovely", edited.Content)
		assert.True(t, edited.UpdatedAt.After(edited.CreatedAt))
	})

	t.Run("missing comment", func(t *testing.T) {
		_, err := f.svc.EditComment(ctx, "b", post.Id, "nope", "x")
		assert.ErrorIs(t, err, types.ErrNotFound)

		assert.ErrorIs(t, f.svc.DeleteComment(ctx, "b", post.Id, "nope"), types.ErrNotFound)
	})

	t.Run("only the author deletes", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.DeleteComment(ctx, "a", post.Id, comment.Id), types.ErrForbidden)
		require.NoError(t, f.svc.DeleteComment(ctx, "b", post.Id, comment.Id))

		stored, err := f.store.GetPost(ctx, post.Id)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.CommentsCount())
	})
}

func TestPostDetailOrdersCommentsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "a", "Alice")
	f.register(t, "b", "Bob")
	post := f.post(t, "a", "Hello")

	first, err := f.svc.AddComment(ctx, "a", post.Id, "first")
	require.NoError(t, err)
	second, err := f.svc.AddComment(ctx, "b", post.Id, "second")
	require.NoError(t, err)

	// Freeze the clock so the next two comments share a timestamp.
	f.clock.SetStep(0)
	third, err := f.svc.AddComment(ctx, "a", post.Id, "third")
	require.NoError(t, err)
	fourth, err := f.svc.AddComment(ctx, "b", post.Id, "fourth")
	require.NoError(t, err)

	view, err := f.svc.PostDetail(ctx, "b", post.Id)
	require.NoError(t, err)

	ids := make([]string, 0, len(view.Comments))
	for _, c := range view.Comments {
		ids = append(ids, c.Id)
	}
	assert.Equal(t, []string{fourth.Id, third.Id, second.Id, first.Id}, ids)
	assert.Equal(t, 4, view.CommentsCount)
	assert.Equal(t, "bob", view.Comments[0].User.Name)
	assert.Equal(t, "bob@example.com", view.Comments[0].User.Email)
}
