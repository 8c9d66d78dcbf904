package queue

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE submissions (
  id TEXT PRIMARY KEY,
  form_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at INTEGER NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT ''
);
`)
	require.NoError(t, err)

	return db
}

func TestEnqueueAndListPending(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	created := time.Unix(0, 1700000000000000000)
	s := &models.Submission{
		ID:        "id1",
		FormID:    "contact",
		Payload:   []byte(`{"name":"x"}`),
		CreatedAt: created,
	}
	require.NoError(t, r.Enqueue(ctx, s))

	items, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "id1", items[0].ID)
	assert.Equal(t, "contact", items[0].FormID)
	assert.Equal(t, []byte(`{"name":"x"}`), items[0].Payload)
	assert.True(t, created.Equal(items[0].CreatedAt))
	assert.Equal(t, 0, items[0].Attempts)
}

func TestListPending_FIFOOrder(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		s := &models.Submission{
			ID:        fmt.Sprintf("id%d", i),
			FormID:    "contact",
			Payload:   []byte(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, r.Enqueue(ctx, s))
	}

	items, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("id%d", i), item.ID)
	}
}

func TestListPending_SameTimestampKeepsInsertionOrder(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	ts := time.Now()
	for i := 0; i < 3; i++ {
		s := &models.Submission{
			ID:        fmt.Sprintf("id%d", i),
			FormID:    "contact",
			Payload:   []byte(`{}`),
			CreatedAt: ts,
		}
		require.NoError(t, r.Enqueue(ctx, s))
	}

	items, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("id%d", i), item.ID)
	}
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, &models.Submission{ID: "id1", FormID: "f", Payload: []byte(`{}`), CreatedAt: time.Now()}))
	require.NoError(t, r.Delete(ctx, "id1"))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// deleting twice is an error: the row is gone
	assert.Error(t, r.Delete(ctx, "id1"))
}

func TestMarkAttempt(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, &models.Submission{ID: "id1", FormID: "f", Payload: []byte(`{"a":1}`), CreatedAt: time.Now()}))

	require.NoError(t, r.MarkAttempt(ctx, "id1", "server unreachable"))
	require.NoError(t, r.MarkAttempt(ctx, "id1", "request timed out"))

	items, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Attempts)
	assert.Equal(t, "request timed out", items[0].LastError)
	// the payload is untouched by failed attempts
	assert.Equal(t, []byte(`{"a":1}`), items[0].Payload)
}

func TestCount(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Enqueue(ctx, &models.Submission{
			ID: fmt.Sprintf("id%d", i), FormID: "f", Payload: []byte(`{}`), CreatedAt: time.Now(),
		}))
	}

	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
