package users

import (
	"context"

	"github.com/dmitrijs2005/formrelay/internal/server/models"
)

type Repository interface {
	// Create inserts a new user and fills in the generated ID.
	// Returns common.ErrorAlreadyExists when the username is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns common.ErrorNotFound when no such user exists.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
