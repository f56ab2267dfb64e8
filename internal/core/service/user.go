package service

import (
	"context"
)

// UserService is the registry of users known to the bot.
type UserService struct {
	repo UserRepository
}

// NewUserService creates a UserService.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register adds the user and reports whether it was unknown before.
func (s *UserService) Register(ctx context.Context, userID int64) (bool, error) {
	known, err := s.repo.HasUser(ctx, userID)
	if err != nil {
		return false, storageErr(err)
	}
	if known {
		return false, nil
	}
	if err := s.repo.AddUser(ctx, userID); err != nil {
		return false, storageErr(err)
	}
	return true, nil
}

// Known reports whether the user is registered.
func (s *UserService) Known(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.repo.HasUser(ctx, userID)
	return ok, storageErr(err)
}

// Remove deletes the user from the registry.
func (s *UserService) Remove(ctx context.Context, userID int64) error {
	return storageErr(s.repo.DeleteUser(ctx, userID))
}

// Count returns the number of registered users.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.CountUsers(ctx)
	return n, storageErr(err)
}

// List returns every registered user id.
func (s *UserService) List(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.ListUsers(ctx)
	return ids, storageErr(err)
}
