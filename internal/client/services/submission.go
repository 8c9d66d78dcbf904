package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/apierr"
	"github.com/dmitrijs2005/formrelay/internal/client/api"
	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/dmitrijs2005/formrelay/internal/client/repositories/queue"
	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/google/uuid"
)

// SubmissionService delivers form submissions, falling back to the durable
// offline queue when the server is unreachable.
type SubmissionService interface {
	// Submit attempts live delivery. When delivery fails with a retriable
	// condition (server unreachable, timeout) the submission is queued and
	// queued=true is returned with a nil error. Non-retriable errors are
	// returned to the caller.
	Submit(ctx context.Context, formID string, payload []byte) (queued bool, err error)

	// Drain attempts delivery of every queued submission in insertion
	// order. Entries are removed on success and stay queued on failure;
	// a per-entry failure never aborts the rest of the queue.
	Drain(ctx context.Context) error

	// RequestDrain asks the drain worker to run. Triggers arriving while
	// a drain is in flight are coalesced into at most one follow-up run.
	RequestDrain()

	// Start launches the drain worker. It exits when ctx is canceled.
	Start(ctx context.Context)

	// Pending lists queued submissions in delivery order.
	Pending(ctx context.Context) ([]*models.Submission, error)

	// PendingCount returns the number of queued submissions.
	PendingCount(ctx context.Context) (int, error)
}

type submissionService struct {
	client api.Client
	repo   queue.Repository
	logger logging.Logger

	// mu guarantees at most one drain in flight; drainCh (capacity 1)
	// coalesces triggers that arrive mid-drain.
	mu      sync.Mutex
	drainCh chan struct{}
}

func NewSubmissionService(client api.Client, repo queue.Repository, logger logging.Logger) SubmissionService {
	return &submissionService{
		client:  client,
		repo:    repo,
		logger:  logger,
		drainCh: make(chan struct{}, 1),
	}
}

func (s *submissionService) Submit(ctx context.Context, formID string, payload []byte) (bool, error) {

	sub := &models.Submission{
		ID:        uuid.NewString(),
		FormID:    formID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	err := s.client.SubmitForm(ctx, sub)
	if err == nil {
		return false, nil
	}

	if !apierr.Retriable(err) {
		return false, err
	}

	if qerr := s.repo.Enqueue(ctx, sub); qerr != nil {
		return false, fmt.Errorf("failed to queue submission: %w", qerr)
	}

	s.logger.Info(ctx, "submission queued for later delivery", "id", sub.ID, "form", formID)
	return true, nil
}

func (s *submissionService) Drain(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.repo.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list queued submissions: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	s.logger.Info(ctx, "draining submission queue", "pending", len(items))

	delivered := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.client.SubmitForm(ctx, item); err != nil {
			// The entry stays queued for the next drain.
			s.logger.Warn(ctx, "delivery failed, submission stays queued",
				"id", item.ID, "attempts", item.Attempts+1, "error", err.Error())
			if merr := s.repo.MarkAttempt(ctx, item.ID, err.Error()); merr != nil {
				s.logger.Error(ctx, "failed to record delivery attempt", "id", item.ID, "error", merr.Error())
			}
			continue
		}

		if derr := s.repo.Delete(ctx, item.ID); derr != nil {
			// Redelivery is safe: the submission id is the server-side
			// idempotency key.
			s.logger.Error(ctx, "failed to remove delivered submission", "id", item.ID, "error", derr.Error())
			continue
		}
		delivered++
	}

	s.logger.Info(ctx, "queue drain finished", "delivered", delivered, "remaining", len(items)-delivered)
	return nil
}

func (s *submissionService) RequestDrain() {
	select {
	case s.drainCh <- struct{}{}:
	default:
	}
}

func (s *submissionService) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.drainCh:
				if err := s.Drain(ctx); err != nil {
					s.logger.Error(ctx, "queue drain failed", "error", err.Error())
				}
			}
		}
	}()
}

func (s *submissionService) Pending(ctx context.Context) ([]*models.Submission, error) {
	return s.repo.ListPending(ctx)
}

func (s *submissionService) PendingCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
