package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/server/models"
)

type Repository interface {
	// Create inserts a refresh token for userID expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token; deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
