package social

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"eldertales_api/events"
	"eldertales_api/store"
	"eldertales_api/types"
)

// RegisterProfile creates the profile document for an authenticated actor.
func (s *Service) RegisterProfile(ctx context.Context, actorId string, req types.RegisterRequest) (*types.User, error) {
	if err := requireActor(actorId); err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	contact := strings.TrimSpace(req.Contact)
	if name == "" || email == "" || contact == "" {
		return nil, fmt.Errorf("%w: name, contact and email are required", types.ErrInvalidArgument)
	}
	if req.Age < types.MIN_USER_AGE {
		return nil, fmt.Errorf("%w: users must be at least %d years old", types.ErrInvalidArgument, types.MIN_USER_AGE)
	}

	existing, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case err == nil && existing.Id != actorId:
		return nil, fmt.Errorf("%w: email %s is already registered", types.ErrConflict, email)
	case err != nil && !errors.Is(err, types.ErrNotFound):
		return nil, storeError(err)
	}

	now := s.timestamp()
	user := &types.User{
		Id:         actorId,
		Name:       name,
		Age:        req.Age,
		Contact:    contact,
		Email:      email,
		Followers:  []string{},
		Following:  []string{},
		Posts:      []string{},
		SavedPosts: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.store.RunTransaction(ctx, store.Scope{Users: []string{actorId}}, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.GetUser(actorId)
		if err == nil {
			return fmt.Errorf("%w: profile already exists", types.ErrConflict)
		}
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		return tx.SetUser(user)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.publish(ctx, events.Event{Subject: events.UserRegistered, ActorId: actorId})
	return user, nil
}

// GetUser returns a profile with its follower and following counts.
func (s *Service) GetUser(ctx context.Context, userId string) (types.UserView, error) {
	user, err := s.store.GetUser(ctx, userId)
	if err != nil {
		return types.UserView{}, storeError(err)
	}
	return types.UserView{
		User:           user,
		FollowersCount: len(user.Followers),
		FollowingCount: len(user.Following),
	}, nil
}

// PublicProfile returns the profile of userId as seen by other users.
func (s *Service) PublicProfile(ctx context.Context, userId string) (types.PublicProfile, error) {
	user, err := s.store.GetUser(ctx, userId)
	if err != nil {
		return types.PublicProfile{}, storeError(err)
	}
	return types.PublicProfile{
		UserSummary:    types.UserSummary{Id: user.Id, Name: user.Name, Email: user.Email},
		PostsCount:     len(user.Posts),
		FollowersCount: len(user.Followers),
		FollowingCount: len(user.Following),
		CreatedAt:      user.CreatedAt,
	}, nil
}

func (s *Service) Followers(ctx context.Context, userId string) (types.Connections, error) {
	return s.connections(ctx, userId, func(u *types.User) []string { return u.Followers })
}

func (s *Service) Following(ctx context.Context, userId string) (types.Connections, error) {
	return s.connections(ctx, userId, func(u *types.User) []string { return u.Following })
}

func (s *Service) connections(ctx context.Context, userId string, set func(*types.User) []string) (types.Connections, error) {
	user, err := s.store.GetUser(ctx, userId)
	if err != nil {
		return types.Connections{}, storeError(err)
	}

	found, err := s.store.GetUsers(ctx, set(user))
	if err != nil {
		return types.Connections{}, storeError(err)
	}

	summaries := make([]types.UserSummary, 0, len(found))
	for _, member := range found {
		summaries = append(summaries, summarize(member, member.Id, ""))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Name == summaries[j].Name {
			return summaries[i].Id < summaries[j].Id
		}
		return summaries[i].Name < summaries[j].Name
	})

	return types.Connections{Count: len(summaries), Users: summaries}, nil
}
