package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"eldertales_api/types"
)

const lockStripes = 256

var errWriteBeforeRead = errors.New("transaction read after write")

// MemoryStore keeps every document in process. Transactions lock the stripes of their
// scope in ascending order, so operations on one target serialize while unrelated targets
// proceed in parallel. Committed documents are never mutated in place: readers take a
// short read lock, copy the pointer they need and never block on a running transaction.
type MemoryStore struct {
	mu      sync.RWMutex
	posts   map[string]*types.Post
	users   map[string]*types.User
	tokens  map[string]string
	stripes [lockStripes]sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:  make(map[string]*types.Post),
		users:  make(map[string]*types.User),
		tokens: make(map[string]string),
	}
}

func stripeFor(key string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum64() % lockStripes)
}

func postKey(id string) string { return "posts/" + id }
func userKey(id string) string { return "users/" + id }

func (s *MemoryStore) RunTransaction(ctx context.Context, scope Scope, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	keys := make(map[string]struct{})
	for _, id := range dedupe(scope.Posts) {
		keys[postKey(id)] = struct{}{}
	}
	for _, id := range dedupe(scope.Users) {
		keys[userKey(id)] = struct{}{}
	}

	stripeSet := make(map[int]struct{}, len(keys))
	for key := range keys {
		stripeSet[stripeFor(key)] = struct{}{}
	}
	stripes := make([]int, 0, len(stripeSet))
	for i := range stripeSet {
		stripes = append(stripes, i)
	}
	sort.Ints(stripes)

	for _, i := range stripes {
		s.stripes[i].Lock()
	}
	defer func() {
		for j := len(stripes) - 1; j >= 0; j-- {
			s.stripes[stripes[j]].Unlock()
		}
	}()

	tx := &memoryTx{
		store:        s,
		scope:        keys,
		posts:        make(map[string]*types.Post),
		users:        make(map[string]*types.User),
		deletedPosts: make(map[string]struct{}),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.commit(tx)
	return nil
}

func (s *MemoryStore) commit(tx *memoryTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range tx.deletedPosts {
		delete(s.posts, id)
	}
	for id, post := range tx.posts {
		s.posts[id] = post
	}
	for id, user := range tx.users {
		s.users[id] = user
	}
}

type memoryTx struct {
	store        *MemoryStore
	scope        map[string]struct{}
	wrote        bool
	posts        map[string]*types.Post
	users        map[string]*types.User
	deletedPosts map[string]struct{}
}

func (tx *memoryTx) check(key string) error {
	if _, ok := tx.scope[key]; !ok {
		return fmt.Errorf("document %s is outside the transaction scope", key)
	}
	return nil
}

func (tx *memoryTx) GetPost(id string) (*types.Post, error) {
	if err := tx.check(postKey(id)); err != nil {
		return nil, err
	}
	if tx.wrote {
		return nil, errWriteBeforeRead
	}

	tx.store.mu.RLock()
	post := tx.store.posts[id]
	tx.store.mu.RUnlock()

	if post == nil {
		return nil, fmt.Errorf("%w: post %s", types.ErrNotFound, id)
	}
	return post.Clone(), nil
}

func (tx *memoryTx) GetUser(id string) (*types.User, error) {
	if err := tx.check(userKey(id)); err != nil {
		return nil, err
	}
	if tx.wrote {
		return nil, errWriteBeforeRead
	}

	tx.store.mu.RLock()
	user := tx.store.users[id]
	tx.store.mu.RUnlock()

	if user == nil {
		return nil, fmt.Errorf("%w: user %s", types.ErrNotFound, id)
	}
	return user.Clone(), nil
}

func (tx *memoryTx) SetPost(post *types.Post) error {
	if err := tx.check(postKey(post.Id)); err != nil {
		return err
	}
	tx.wrote = true
	delete(tx.deletedPosts, post.Id)
	tx.posts[post.Id] = post.Clone()
	return nil
}

func (tx *memoryTx) SetUser(user *types.User) error {
	if err := tx.check(userKey(user.Id)); err != nil {
		return err
	}
	tx.wrote = true
	tx.users[user.Id] = user.Clone()
	return nil
}

func (tx *memoryTx) DeletePost(id string) error {
	if err := tx.check(postKey(id)); err != nil {
		return err
	}
	tx.wrote = true
	delete(tx.posts, id)
	tx.deletedPosts[id] = struct{}{}
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id string) (*types.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post := s.posts[id]
	if post == nil {
		return nil, fmt.Errorf("%w: post %s", types.ErrNotFound, id)
	}
	return post.Clone(), nil
}

func (s *MemoryStore) GetPosts(ctx context.Context, ids []string) (map[string]*types.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*types.Post, len(ids))
	for _, id := range dedupe(ids) {
		if post := s.posts[id]; post != nil {
			result[id] = post.Clone()
		}
	}
	return result, nil
}

func (s *MemoryStore) ListPosts(ctx context.Context, query PostQuery) ([]*types.Post, error) {
	s.mu.RLock()
	posts := make([]*types.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if query.OwnerId != "" && post.OwnerId != query.OwnerId {
			continue
		}
		if query.ExcludeOwnerId != "" && post.OwnerId == query.ExcludeOwnerId {
			continue
		}
		posts = append(posts, post.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].Id > posts[j].Id
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := s.users[id]
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", types.ErrNotFound, id)
	}
	return user.Clone(), nil
}

func (s *MemoryStore) GetUsers(ctx context.Context, ids []string) (map[string]*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*types.User, len(ids))
	for _, id := range dedupe(ids) {
		if user := s.users[id]; user != nil {
			result[id] = user.Clone()
		}
	}
	return result, nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: user with email %s", types.ErrNotFound, email)
}

func (s *MemoryStore) UsersSavingPost(ctx context.Context, postId string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, user := range s.users {
		for _, saved := range user.SavedPosts {
			if saved == postId {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) SetRegistrationToken(ctx context.Context, userId, clientId, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[userId] = token
	return nil
}

func (s *MemoryStore) GetRegistrationToken(ctx context.Context, userId string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[userId]
	if !ok {
		return "", fmt.Errorf("%w: registration token for %s", types.ErrNotFound, userId)
	}
	return token, nil
}
