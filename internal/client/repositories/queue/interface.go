package queue

import (
	"context"

	"github.com/dmitrijs2005/formrelay/internal/client/models"
)

// Repository persists submissions awaiting delivery. Implementations are
// backed by the client's local SQLite database.
type Repository interface {
	// Enqueue durably appends a submission.
	Enqueue(ctx context.Context, s *models.Submission) error

	// ListPending returns every queued submission in insertion order.
	ListPending(ctx context.Context) ([]*models.Submission, error)

	// Delete removes a delivered submission.
	Delete(ctx context.Context, id string) error

	// MarkAttempt increments the attempt counter and records the last
	// delivery error for a submission that stays queued.
	MarkAttempt(ctx context.Context, id string, lastError string) error

	// Count returns the number of queued submissions.
	Count(ctx context.Context) (int, error)
}
