package social

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"eldertales_api/store"
	"eldertales_api/types"
)

// Page selects a window of a feed. A Size of zero returns everything.
type Page struct {
	Number int
	Size   int
}

func (p Page) apply(posts []*types.Post) []*types.Post {
	if p.Size <= 0 {
		return posts
	}
	number := p.Number
	if number < 1 {
		number = 1
	}

	start := (number - 1) * p.Size
	if start >= len(posts) {
		return []*types.Post{}
	}
	end := start + p.Size
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end]
}

// NormalizeMediaURL picks the primary media URL and upgrades plain http to https. It
// returns nil when the list is empty or the first entry is not an absolute URL.
func NormalizeMediaURL(media []string) *string {
	if len(media) == 0 {
		return nil
	}

	raw := strings.TrimSpace(media[0])
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}

	if strings.EqualFold(u.Scheme, "http") {
		raw = "https" + raw[len(u.Scheme):]
	}
	return &raw
}

// OthersFeed lists every post not owned by the actor, newest first.
func (s *Service) OthersFeed(ctx context.Context, actorId string, page Page) ([]types.PostView, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}

	posts, err := s.store.ListPosts(ctx, store.PostQuery{ExcludeOwnerId: actorId})
	if err != nil {
		return nil, storeError(err)
	}
	return s.AssembleView(ctx, actorId, page.apply(posts), false)
}

// OwnFeed lists the actor's posts, newest first.
func (s *Service) OwnFeed(ctx context.Context, actorId string, page Page) ([]types.PostView, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}
	return s.ownerFeed(ctx, actorId, actorId, page)
}

// UserFeed lists the posts of userId as seen by the actor.
func (s *Service) UserFeed(ctx context.Context, actorId, userId string, page Page) ([]types.PostView, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, userId); err != nil {
		return nil, storeError(err)
	}
	return s.ownerFeed(ctx, actorId, userId, page)
}

func (s *Service) ownerFeed(ctx context.Context, actorId, ownerId string, page Page) ([]types.PostView, error) {
	posts, err := s.store.ListPosts(ctx, store.PostQuery{OwnerId: ownerId})
	if err != nil {
		return nil, storeError(err)
	}
	return s.AssembleView(ctx, actorId, page.apply(posts), false)
}

// SavedFeed lists the posts the actor saved, newest first. Saved ids whose post is gone
// are skipped.
func (s *Service) SavedFeed(ctx context.Context, actorId string, page Page) ([]types.PostView, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}

	actor, err := s.store.GetUser(ctx, actorId)
	if err != nil {
		return nil, storeError(err)
	}

	found, err := s.store.GetPosts(ctx, actor.SavedPosts)
	if err != nil {
		return nil, storeError(err)
	}

	posts := make([]*types.Post, 0, len(found))
	for _, post := range found {
		posts = append(posts, post)
	}
	sortNewestFirst(posts)

	return s.AssembleView(ctx, actorId, page.apply(posts), false)
}

// SearchOwn matches keyword case-insensitively against the description and owner name
// of the actor's posts.
func (s *Service) SearchOwn(ctx context.Context, actorId, keyword string, page Page) ([]types.PostView, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", types.ErrInvalidArgument)
	}

	posts, err := s.store.ListPosts(ctx, store.PostQuery{OwnerId: actorId})
	if err != nil {
		return nil, storeError(err)
	}

	ownerName := ""
	if actor, err := s.store.GetUser(ctx, actorId); err == nil {
		ownerName = strings.ToLower(actor.Name)
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, storeError(err)
	}

	matches := make([]*types.Post, 0, len(posts))
	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Description), keyword) || strings.Contains(ownerName, keyword) {
			matches = append(matches, post)
		}
	}
	return s.AssembleView(ctx, actorId, page.apply(matches), false)
}

// PostDetail returns one post with its comments, newest first.
func (s *Service) PostDetail(ctx context.Context, actorId, postId string) (types.PostView, error) {
	if err := requireActor(actorId); err != nil {
		return types.PostView{}, err
	}

	post, err := s.store.GetPost(ctx, postId)
	if err != nil {
		return types.PostView{}, storeError(err)
	}

	views, err := s.AssembleView(ctx, actorId, []*types.Post{post}, true)
	if err != nil {
		return types.PostView{}, err
	}
	return views[0], nil
}

// AssembleView projects posts for the actor. Each view reads its counts and isLiked from
// the same post snapshot; isSaved and isFollowing come from one read of the actor.
func (s *Service) AssembleView(ctx context.Context, actorId string, posts []*types.Post, withComments bool) ([]types.PostView, error) {
	actor, err := s.store.GetUser(ctx, actorId)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return nil, storeError(err)
		}
		actor = &types.User{Id: actorId}
	}

	var userIds []string
	for _, post := range posts {
		userIds = append(userIds, post.OwnerId)
		if withComments {
			for _, comment := range post.Comments {
				userIds = append(userIds, comment.AuthorId)
			}
		}
	}

	users, err := s.store.GetUsers(ctx, userIds)
	if err != nil {
		return nil, storeError(err)
	}

	views := make([]types.PostView, 0, len(posts))
	for _, post := range posts {
		mediaURL := NormalizeMediaURL(post.Media)
		media := post.Media
		if media == nil {
			media = []string{}
		}

		view := types.PostView{
			PostId:        post.Id,
			Description:   post.Description,
			Media:         media,
			MediaURL:      mediaURL,
			HasMedia:      mediaURL != nil,
			User:          summarize(users[post.OwnerId], post.OwnerId, ""),
			LikesCount:    post.LikesCount(),
			CommentsCount: post.CommentsCount(),
			IsLiked:       contains(post.Likes, actorId),
			IsSaved:       contains(actor.SavedPosts, post.Id),
			IsFollowing:   contains(actor.Following, post.OwnerId),
			CreatedAt:     post.CreatedAt,
			UpdatedAt:     post.UpdatedAt,
		}
		if withComments {
			view.Comments = commentViews(post.Comments, users)
		}
		views = append(views, view)
	}
	return views, nil
}

// commentViews orders comments newest first. Comments with equal timestamps keep the
// later-appended one first.
func commentViews(comments []types.Comment, users map[string]*types.User) []types.CommentView {
	views := make([]types.CommentView, 0, len(comments))
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		views = append(views, types.CommentView{
			Id:        c.Id,
			User:      summarize(users[c.AuthorId], c.AuthorId, c.AuthorName),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}

func summarize(user *types.User, id, fallbackName string) types.UserSummary {
	if user == nil {
		return types.UserSummary{Id: id, Name: fallbackName}
	}
	return types.UserSummary{Id: user.Id, Name: user.Name, Email: user.Email}
}

func sortNewestFirst(posts []*types.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].Id > posts[j].Id
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
