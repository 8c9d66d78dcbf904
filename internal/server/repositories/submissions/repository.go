package submissions

import (
	"context"

	"github.com/dmitrijs2005/formrelay/internal/server/models"
)

type Repository interface {
	// Insert stores a submission. duplicate=true means a submission with
	// the same ID already exists and nothing was written: replays of queued
	// entries must be acknowledged, not duplicated.
	Insert(ctx context.Context, s *models.Submission) (duplicate bool, err error)

	// GetByID returns common.ErrorNotFound when the submission is unknown.
	GetByID(ctx context.Context, id string) (*models.Submission, error)

	// CountByUser returns the number of stored submissions for a user.
	CountByUser(ctx context.Context, userID string) (int, error)
}
