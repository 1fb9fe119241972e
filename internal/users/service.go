package users

import (
	"context"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListFavorites(ctx context.Context, userID int64) ([]Favorite, error)
	AddFavorite(ctx context.Context, userID, courseID int64) (*Favorite, error)
	RemoveFavorite(ctx context.Context, userID, courseID int64) error
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// Favorites lists the saved courses of username.
func (s *Service) Favorites(ctx context.Context, actor *shared.Principal, username string) ([]Favorite, error) {
	user, err := s.ownedUser(ctx, actor, username)
	if err != nil {
		return nil, err
	}
	return s.repo.ListFavorites(ctx, user.ID)
}

// AddFavorite saves courseID for username.
func (s *Service) AddFavorite(ctx context.Context, actor *shared.Principal, username string, courseID int64) (*Favorite, error) {
	user, err := s.ownedUser(ctx, actor, username)
	if err != nil {
		return nil, err
	}
	return s.repo.AddFavorite(ctx, user.ID, courseID)
}

// RemoveFavorite drops courseID from username's favorites.
func (s *Service) RemoveFavorite(ctx context.Context, actor *shared.Principal, username string, courseID int64) error {
	user, err := s.ownedUser(ctx, actor, username)
	if err != nil {
		return err
	}
	return s.repo.RemoveFavorite(ctx, user.ID, courseID)
}

// ownedUser loads username when actor is that user or an admin. The
// permission check runs first so non-owners cannot learn which usernames exist.
func (s *Service) ownedUser(ctx context.Context, actor *shared.Principal, username string) (*User, error) {
	if actor == nil || (actor.Username != username && !actor.IsAdmin()) {
		return nil, shared.ErrForbidden
	}
	return s.repo.GetUserByUsername(ctx, username)
}
