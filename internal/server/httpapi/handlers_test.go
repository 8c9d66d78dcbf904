package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/common"
	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/dmitrijs2005/formrelay/internal/server/auth"
	"github.com/dmitrijs2005/formrelay/internal/server/models"
	"github.com/dmitrijs2005/formrelay/internal/server/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUserService struct {
	registerErr error
	loginFn     func(username, password string) (*services.TokenPair, error)
	refreshFn   func(refreshToken string) (*services.TokenPair, error)
}

func (f *fakeUserService) Register(ctx context.Context, username, password string) error {
	return f.registerErr
}

func (f *fakeUserService) Login(ctx context.Context, username, password string) (*services.TokenPair, error) {
	if f.loginFn != nil {
		return f.loginFn(username, password)
	}
	return &services.TokenPair{}, nil
}

func (f *fakeUserService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if f.refreshFn != nil {
		return f.refreshFn(refreshToken)
	}
	return &services.TokenPair{}, nil
}

type fakeSubmissionService struct {
	acceptFn  func(sub *models.Submission) (bool, error)
	presignFn func(submissionID string) (string, string, error)
	accepted  []*models.Submission
}

func (f *fakeSubmissionService) Accept(ctx context.Context, sub *models.Submission) (bool, error) {
	f.accepted = append(f.accepted, sub)
	if f.acceptFn != nil {
		return f.acceptFn(sub)
	}
	return false, nil
}

func (f *fakeSubmissionService) PresignAttachmentURL(ctx context.Context, submissionID string) (string, string, error) {
	if f.presignFn != nil {
		return f.presignFn(submissionID)
	}
	return "", "", nil
}

type fakeForms struct {
	forms []models.Form
}

func (f *fakeForms) GetAll(ctx context.Context) ([]models.Form, error) { return f.forms, nil }

func (f *fakeForms) Exists(ctx context.Context, id string) (bool, error) {
	for _, form := range f.forms {
		if form.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func newTestServer(users UserService, submissions SubmissionService, forms *fakeForms) http.Handler {
	if forms == nil {
		forms = &fakeForms{}
	}
	s := NewServer(":0", testSecret, testLogger(), users, submissions, forms)
	return s.Router()
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set(common.AuthHeaderName, common.AuthSchemePrefix+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func accessToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return token
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestPing(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/ping", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestRegister(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/register", "",
		map[string]string{"username": "alice", "password": "pw"})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/register", "",
		map[string]string{"username": "alice"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	h := newTestServer(&fakeUserService{registerErr: common.ErrorAlreadyExists}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/register", "",
		map[string]string{"username": "alice", "password": "pw"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, errorMessage(t, rec))
}

func TestLogin(t *testing.T) {
	users := &fakeUserService{loginFn: func(username, password string) (*services.TokenPair, error) {
		return &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, nil
	}}
	h := newTestServer(users, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/login", "",
		map[string]string{"username": "alice", "password": "pw"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"access_token":"acc","refresh_token":"ref"}`, rec.Body.String())
}

func TestLogin_BadCredentials(t *testing.T) {
	users := &fakeUserService{loginFn: func(username, password string) (*services.TokenPair, error) {
		return nil, common.ErrorUnauthorized
	}}
	h := newTestServer(users, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/login", "",
		map[string]string{"username": "alice", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	users := &fakeUserService{refreshFn: func(refreshToken string) (*services.TokenPair, error) {
		return nil, common.ErrRefreshTokenExpired
	}}
	h := newTestServer(users, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/users/refresh", "",
		map[string]string{"refresh_token": "stale"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.ErrRefreshTokenExpired.Error(), errorMessage(t, rec))
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/forms", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MalformedToken(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/forms", "garbage", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.ErrInvalidToken.Error(), errorMessage(t, rec))
}

// An expired access token must produce the exact message the client's
// refresh-and-replay keys on.
func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expired, err := auth.GenerateToken("user-123", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/forms", expired, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.ErrTokenExpired.Error(), errorMessage(t, rec))
}

func TestListForms(t *testing.T) {
	forms := &fakeForms{forms: []models.Form{
		{ID: "contact", Title: "Contact request"},
		{ID: "incident", Title: "Incident report"},
	}}
	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, forms)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/forms", accessToken(t, "user-123"), nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []formResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "contact", got[0].ID)
}

func TestCreateSubmission(t *testing.T) {
	subs := &fakeSubmissionService{}
	h := newTestServer(&fakeUserService{}, subs, nil)

	id := uuid.NewString()
	rec := doRequest(t, h, http.MethodPost, "/api/v1/submissions", accessToken(t, "user-123"),
		map[string]any{"id": id, "form_id": "contact", "payload": map[string]string{"name": "x"}})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp submissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.False(t, resp.Duplicate)

	require.Len(t, subs.accepted, 1)
	assert.Equal(t, "user-123", subs.accepted[0].UserID)
	assert.Equal(t, "contact", subs.accepted[0].FormID)
}

func TestCreateSubmission_DuplicateIsAcknowledged(t *testing.T) {
	subs := &fakeSubmissionService{
		acceptFn: func(sub *models.Submission) (bool, error) { return true, nil },
	}
	h := newTestServer(&fakeUserService{}, subs, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/submissions", accessToken(t, "user-123"),
		map[string]any{"id": uuid.NewString(), "form_id": "contact", "payload": map[string]string{}})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp submissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Duplicate)
}

func TestCreateSubmission_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"non-uuid id", map[string]any{"id": "42", "form_id": "contact", "payload": map[string]string{}}},
		{"missing form_id", map[string]any{"id": uuid.NewString(), "payload": map[string]string{}}},
		{"missing payload", map[string]any{"id": uuid.NewString(), "form_id": "contact"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

			rec := doRequest(t, h, http.MethodPost, "/api/v1/submissions", accessToken(t, "user-123"), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateSubmission_UnknownForm(t *testing.T) {
	subs := &fakeSubmissionService{
		acceptFn: func(sub *models.Submission) (bool, error) {
			return false, fmt.Errorf("unknown form %q: %w", sub.FormID, common.ErrorNotFound)
		},
	}
	h := newTestServer(&fakeUserService{}, subs, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/submissions", accessToken(t, "user-123"),
		map[string]any{"id": uuid.NewString(), "form_id": "nope", "payload": map[string]string{}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresignAttachment(t *testing.T) {
	subs := &fakeSubmissionService{
		presignFn: func(submissionID string) (string, string, error) {
			return "attachments/" + submissionID, "https://s3.example/put", nil
		},
	}
	h := newTestServer(&fakeUserService{}, subs, nil)

	id := uuid.NewString()
	rec := doRequest(t, h, http.MethodPost, "/api/v1/attachments/presign", accessToken(t, "user-123"),
		map[string]string{"submission_id": id})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp presignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "attachments/"+id, resp.Key)
	assert.Equal(t, "https://s3.example/put", resp.URL)
}

func TestPresignAttachment_MissingID(t *testing.T) {
	h := newTestServer(&fakeUserService{}, &fakeSubmissionService{}, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/attachments/presign", accessToken(t, "user-123"),
		map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
