package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/dmitrijs2005/formrelay/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, s *models.Submission) error {
	query := `INSERT INTO submissions (id, form_id, payload, created_at, attempts, last_error)
			values (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.FormID, s.Payload, s.CreatedAt.UnixNano(), s.Attempts, s.LastError)
	if err != nil {
		return fmt.Errorf("failed to enqueue submission: %w", err)
	}
	return nil
}

// ListPending returns queued submissions oldest first. Ties on created_at
// fall back to rowid so insertion order is always preserved.
func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.Submission, error) {
	query := `select id, form_id, payload, created_at, attempts, last_error
			from submissions order by created_at, rowid`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select submissions: %w", err)
	}
	defer rows.Close()

	var result []*models.Submission
	for rows.Next() {
		item := &models.Submission{}
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.FormID, &item.Payload, &createdAt, &item.Attempts, &item.LastError); err != nil {
			return nil, err
		}
		item.CreatedAt = time.Unix(0, createdAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a submission after successful delivery. It expects exactly
// one row to be affected.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from submissions where id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

func (r *SQLiteRepository) MarkAttempt(ctx context.Context, id string, lastError string) error {
	query := `update submissions set attempts=attempts+1, last_error=? where id=?`
	_, err := r.db.ExecContext(ctx, query, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark attempt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `select count(*) from submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return n, nil
}
