package store

import (
	"context"
	"errors"
	"fmt"

	"eldertales_api/types"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps posts and users as Firestore documents. Transactions are
// Firestore's optimistic transactions: a conflicting commit is retried by the client
// library and surfaces as types.ErrConflict once the attempts run out.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) posts() *firestore.CollectionRef {
	return s.client.Collection(types.FIREBASE_POSTS_COLLECTION)
}

func (s *FirestoreStore) users() *firestore.CollectionRef {
	return s.client.Collection(types.FIREBASE_USERS_COLLECTION)
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, scope Scope, fn func(ctx context.Context, tx Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{store: s, tx: t})
	})
	return translateError(err)
}

type firestoreTx struct {
	store *FirestoreStore
	tx    *firestore.Transaction
}

func (t *firestoreTx) GetPost(id string) (*types.Post, error) {
	doc, err := t.tx.Get(t.store.posts().Doc(id))
	if err != nil {
		return nil, notFoundOr(err, "post", id)
	}

	var post types.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, fmt.Errorf("failed to decode post %s: %w", id, err)
	}
	return &post, nil
}

func (t *firestoreTx) GetUser(id string) (*types.User, error) {
	doc, err := t.tx.Get(t.store.users().Doc(id))
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}

	var user types.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return &user, nil
}

func (t *firestoreTx) SetPost(post *types.Post) error {
	return t.tx.Set(t.store.posts().Doc(post.Id), post)
}

func (t *firestoreTx) SetUser(user *types.User) error {
	return t.tx.Set(t.store.users().Doc(user.Id), user)
}

func (t *firestoreTx) DeletePost(id string) error {
	return t.tx.Delete(t.store.posts().Doc(id))
}

func (s *FirestoreStore) GetPost(ctx context.Context, id string) (*types.Post, error) {
	doc, err := s.posts().Doc(id).Get(ctx)
	if err != nil {
		return nil, translateError(notFoundOr(err, "post", id))
	}

	var post types.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, fmt.Errorf("%w: failed to decode post %s: %v", types.ErrUnavailable, id, err)
	}
	return &post, nil
}

func (s *FirestoreStore) GetPosts(ctx context.Context, ids []string) (map[string]*types.Post, error) {
	ids = dedupe(ids)
	result := make(map[string]*types.Post, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.posts().Doc(id))
	}

	docs, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, translateError(err)
	}

	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var post types.Post
		if err := doc.DataTo(&post); err != nil {
			return nil, fmt.Errorf("%w: failed to decode post %s: %v", types.ErrUnavailable, doc.Ref.ID, err)
		}
		result[post.Id] = &post
	}
	return result, nil
}

func (s *FirestoreStore) ListPosts(ctx context.Context, query PostQuery) ([]*types.Post, error) {
	q := s.posts().Query
	if query.OwnerId != "" {
		q = q.Where(types.FIREBASE_POSTS_FIELDS_OWNER_ID, "==", query.OwnerId)
	}
	q = q.OrderBy(types.FIREBASE_POSTS_FIELDS_CREATED_AT, firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var posts []*types.Post
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateError(err)
		}

		var post types.Post
		if err := doc.DataTo(&post); err != nil {
			return nil, fmt.Errorf("%w: failed to decode post %s: %v", types.ErrUnavailable, doc.Ref.ID, err)
		}

		// Firestore cannot combine != on ownerId with ordering on createdAt
		if query.ExcludeOwnerId != "" && post.OwnerId == query.ExcludeOwnerId {
			continue
		}
		posts = append(posts, &post)
	}
	return posts, nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	doc, err := s.users().Doc(id).Get(ctx)
	if err != nil {
		return nil, translateError(notFoundOr(err, "user", id))
	}

	var user types.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode user %s: %v", types.ErrUnavailable, id, err)
	}
	return &user, nil
}

func (s *FirestoreStore) GetUsers(ctx context.Context, ids []string) (map[string]*types.User, error) {
	ids = dedupe(ids)
	result := make(map[string]*types.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.users().Doc(id))
	}

	docs, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, translateError(err)
	}

	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var user types.User
		if err := doc.DataTo(&user); err != nil {
			return nil, fmt.Errorf("%w: failed to decode user %s: %v", types.ErrUnavailable, doc.Ref.ID, err)
		}
		result[user.Id] = &user
	}
	return result, nil
}

func (s *FirestoreStore) FindUserByEmail(ctx context.Context, email string) (*types.User, error) {
	iter := s.users().Where(types.FIREBASE_USERS_FIELDS_EMAIL, "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("%w: user with email %s", types.ErrNotFound, email)
	}
	if err != nil {
		return nil, translateError(err)
	}

	var user types.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode user %s: %v", types.ErrUnavailable, doc.Ref.ID, err)
	}
	return &user, nil
}

func (s *FirestoreStore) UsersSavingPost(ctx context.Context, postId string) ([]string, error) {
	iter := s.users().Where(types.FIREBASE_USERS_FIELDS_SAVED_POSTS, "array-contains", postId).Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateError(err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

func (s *FirestoreStore) SetRegistrationToken(ctx context.Context, userId, clientId, token string) error {
	_, err := s.client.Collection(types.FIREBASE_MESSAGING_TOKEN_COLLECTION).Doc(userId).Set(ctx, tokenDocument(clientId, token))
	return translateError(err)
}

func tokenDocument(clientId, token string) map[string]interface{} {
	return map[string]interface{}{
		types.FIREBASE_MESSAGING_TOKEN_FIELDS_CLIENT:     clientId,
		types.FIREBASE_MESSAGING_TOKEN_FIELDS_TOKEN:      token,
		types.FIREBASE_MESSAGING_TOKEN_FIELDS_UPDATED_AT: firestore.ServerTimestamp,
	}
}

func (s *FirestoreStore) GetRegistrationToken(ctx context.Context, userId string) (string, error) {
	doc, err := s.client.Collection(types.FIREBASE_MESSAGING_TOKEN_COLLECTION).Doc(userId).Get(ctx)
	if err != nil {
		return "", translateError(notFoundOr(err, "registration token", userId))
	}

	token, ok := doc.Data()[types.FIREBASE_MESSAGING_TOKEN_FIELDS_TOKEN].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("%w: registration token for %s", types.ErrNotFound, userId)
	}
	return token, nil
}

func notFoundOr(err error, kind, id string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s %s", types.ErrNotFound, kind, id)
	}
	return err
}

// translateError keeps domain errors intact and folds transport failures into the
// retryable kinds the handlers understand.
func translateError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}

	switch status.Code(err) {
	case codes.Aborted:
		return fmt.Errorf("%w: transaction contention: %v", types.ErrConflict, err)
	case codes.NotFound:
		return fmt.Errorf("%w: %v", types.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}
}

func isDomainError(err error) bool {
	for _, kind := range []error{
		types.ErrNotFound,
		types.ErrForbidden,
		types.ErrInvalidOperation,
		types.ErrInvalidArgument,
		types.ErrUnauthorized,
		types.ErrConflict,
		types.ErrUnavailable,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
