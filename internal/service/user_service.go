package service

import (
	"context"

	"twitt/internal/models"
	"twitt/internal/repository"

	"github.com/google/uuid"
)

// UserService backs the operator commands that manage accounts.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, models.ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeError(err, models.ErrUserNotFound)
	}
	return user, nil
}

// SetAdmin grants or revokes the admin flag and returns the updated user.
func (s *UserService) SetAdmin(ctx context.Context, targetID uuid.UUID, isAdmin bool) (*models.User, error) {
	if err := s.userRepo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, storeError(err, models.ErrUserNotFound)
	}
	return s.GetUserByID(ctx, targetID)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return admins, nil
}
