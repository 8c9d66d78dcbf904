package submissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formrelay/internal/common"
	"github.com/dmitrijs2005/formrelay/internal/dbx"
	"github.com/dmitrijs2005/formrelay/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert is idempotent on the client-minted submission id: a conflicting
// insert writes nothing and is reported as a duplicate.
func (r *PostgresRepository) Insert(ctx context.Context, s *models.Submission) (bool, error) {
	query := `
		INSERT INTO submissions (id, user_id, form_id, payload, client_created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.FormID, s.Payload, s.ClientCreatedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra == 0, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `
		SELECT id, user_id, form_id, payload, client_created_at, received_at
		FROM submissions
		WHERE id = $1
	`
	s := &models.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.UserID, &s.FormID, &s.Payload, &s.ClientCreatedAt, &s.ReceivedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM submissions WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
