package services

import (
	"context"
	"errors"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"
)

// ProfileService reads and edits the caller's own profile. A profile that
// does not exist yet is created from the token identity on first access.
type ProfileService struct {
	users store.UserStore
}

func NewProfileService(users store.UserStore) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) GetProfile(ctx context.Context, actor Actor) (*models.User, error) {
	if actor.UID == "" {
		return nil, utils.Unauthenticated("authentication required")
	}
	user, err := s.users.GetUser(ctx, actor.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, utils.Internal(err, "Failed to load profile")
	}

	user = &models.User{UID: actor.UID, Email: actor.Email, Provider: "password"}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		// created by a concurrent request
		user, err = s.users.GetUser(ctx, actor.UID)
	}
	if err != nil {
		return nil, utils.Internal(err, "Failed to load profile")
	}
	return user, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, actor Actor, update models.ProfileUpdate) (*models.User, error) {
	if _, err := s.GetProfile(ctx, actor); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, actor.UID, update)
	if err != nil {
		return nil, storeError(err, "profile")
	}
	return user, nil
}
