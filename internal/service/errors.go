package service

import (
	"context"
	"errors"

	"twitt/internal/models"
	"twitt/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// storeError maps a repository error to the domain error set. Record-not-found
// becomes notFound; anything else is wrapped as an internal error.
func storeError(err error, notFound *models.AppError) error {
	if err == nil {
		return nil
	}
	if _, ok := models.AsAppError(err); ok {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return models.NewInternalError(err)
}

// loadActor resolves the authenticated user from the database, never the
// cache, since its IsAdmin feeds the authorization gate. A token for a user
// that no longer exists is treated as unauthenticated.
func loadActor(ctx context.Context, users repository.UserRepository, id uuid.UUID) (*models.User, error) {
	actor, err := users.GetFresh(ctx, id)
	if err != nil {
		return nil, storeError(err, models.ErrInvalidToken)
	}
	return actor, nil
}
