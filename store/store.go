// Package store holds the content store the social engine reads and mutates: posts, user
// profiles and messaging registration tokens.
package store

import (
	"context"

	"eldertales_api/types"
)

// Scope names every document a transaction may read or write. Implementations that
// serialize with locks use it to pick the exclusion scope up front.
type Scope struct {
	Posts []string
	Users []string
}

// Tx is the view of the store inside one transaction. All reads must happen before the
// first write. Writes become visible only when the transaction function returns nil.
type Tx interface {
	// GetPost and GetUser return types.ErrNotFound when the document does not exist.
	GetPost(id string) (*types.Post, error)
	GetUser(id string) (*types.User, error)
	SetPost(post *types.Post) error
	SetUser(user *types.User) error
	DeletePost(id string) error
}

// PostQuery selects posts for the feed. Results are always ordered newest first.
type PostQuery struct {
	OwnerId        string
	ExcludeOwnerId string
}

type ContentStore interface {
	RunTransaction(ctx context.Context, scope Scope, fn func(ctx context.Context, tx Tx) error) error

	GetPost(ctx context.Context, id string) (*types.Post, error)
	// GetPosts returns the posts that exist among ids, keyed by id. Missing ids are skipped.
	GetPosts(ctx context.Context, ids []string) (map[string]*types.Post, error)
	ListPosts(ctx context.Context, query PostQuery) ([]*types.Post, error)

	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*types.User, error)
	FindUserByEmail(ctx context.Context, email string) (*types.User, error)
	// UsersSavingPost returns the ids of users whose saved list holds postId.
	UsersSavingPost(ctx context.Context, postId string) ([]string, error)

	SetRegistrationToken(ctx context.Context, userId, clientId, token string) error
	GetRegistrationToken(ctx context.Context, userId string) (string, error)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
