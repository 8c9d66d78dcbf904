package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dmitrijs2005/formrelay/internal/client/api"
	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/dmitrijs2005/formrelay/internal/client/storage"
	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRepos(t *testing.T) *storage.Repositories {
	t.Helper()
	db, repos, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repos
}

// fakeClient implements api.Client with per-method hooks; unhooked methods
// succeed with zero values.
type fakeClient struct {
	mu sync.Mutex

	submitFormFn func(s *models.Submission) error
	listFormsFn  func() ([]models.Form, error)
	loginFn      func(username, password string) (*api.TokenPair, error)
	refreshFn    func(refreshToken string) (*api.TokenPair, error)
	pingErr      error

	submitted    []*models.Submission
	refreshCalls int
	tokens       *api.TokenPair
	onTokens     func(pair *api.TokenPair)
}

func (f *fakeClient) Register(ctx context.Context, username, password string) error { return nil }

func (f *fakeClient) Login(ctx context.Context, username, password string) (*api.TokenPair, error) {
	if f.loginFn != nil {
		return f.loginFn(username, password)
	}
	return &api.TokenPair{}, nil
}

func (f *fakeClient) Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	if f.refreshFn != nil {
		return f.refreshFn(refreshToken)
	}
	return &api.TokenPair{}, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) SubmitForm(ctx context.Context, s *models.Submission) error {
	var err error
	if f.submitFormFn != nil {
		err = f.submitFormFn(s)
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, s)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) ListForms(ctx context.Context) ([]models.Form, error) {
	if f.listFormsFn != nil {
		return f.listFormsFn()
	}
	return nil, nil
}

func (f *fakeClient) PresignAttachment(ctx context.Context, submissionID string) (string, string, error) {
	return "", "", nil
}

func (f *fakeClient) SetTokens(pair *api.TokenPair) { f.tokens = pair }

func (f *fakeClient) OnTokensRefreshed(fn func(pair *api.TokenPair)) { f.onTokens = fn }

func (f *fakeClient) submittedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.submitted))
	for _, s := range f.submitted {
		ids = append(ids, s.ID)
	}
	return ids
}

func (f *fakeClient) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}
