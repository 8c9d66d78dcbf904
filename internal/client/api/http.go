package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/apierr"
	"github.com/dmitrijs2005/formrelay/internal/client/models"
	"github.com/dmitrijs2005/formrelay/internal/common"
	"github.com/dmitrijs2005/formrelay/internal/logging"
	"github.com/sethvargo/go-retry"
)

type HTTPClient struct {
	baseURL  string
	http     *http.Client
	logger   logging.Logger
	onTokens func(pair *TokenPair)

	// mu guards the token pair: the drain worker submits in the background
	// while the REPL logs in or refreshes on the main goroutine.
	mu           sync.Mutex
	accessToken  string
	refreshToken string

	// refreshMu serializes the 401 refresh-and-replay path so concurrent
	// callers cannot consume the refresh token twice.
	refreshMu sync.Mutex
}

func NewHTTPClient(baseURL string, requestTimeout time.Duration, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

func (c *HTTPClient) SetTokens(pair *TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pair == nil {
		c.accessToken, c.refreshToken = "", ""
		return
	}
	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
}

func (c *HTTPClient) tokens() (access string, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) OnTokensRefreshed(fn func(pair *TokenPair)) {
	c.onTokens = fn
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type submissionRequest struct {
	ID        string          `json:"id"`
	FormID    string          `json:"form_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type presignRequest struct {
	SubmissionID string `json:"submission_id"`
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (c *HTTPClient) Register(ctx context.Context, username string, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/users/register",
		&registerRequest{Username: username, Password: password}, nil, false)
}

func (c *HTTPClient) Login(ctx context.Context, username string, password string) (*TokenPair, error) {
	pair := &TokenPair{}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/users/login",
		&loginRequest{Username: username, Password: password}, pair, false)
	if err != nil {
		return nil, err
	}
	c.SetTokens(pair)
	return pair, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair := &TokenPair{}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/users/refresh",
		&refreshRequest{RefreshToken: refreshToken}, pair, false)
	if err != nil {
		return nil, err
	}
	c.SetTokens(pair)
	return pair, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/v1/ping", nil, nil, false)
}

func (c *HTTPClient) SubmitForm(ctx context.Context, s *models.Submission) error {
	req := &submissionRequest{
		ID:        s.ID,
		FormID:    s.FormID,
		Payload:   json.RawMessage(s.Payload),
		CreatedAt: s.CreatedAt,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/submissions", req, nil, true)
}

// ListForms fetches form definitions. Reads are idempotent, so transient
// failures are retried with fibonacci backoff before the error is surfaced.
func (c *HTTPClient) ListForms(ctx context.Context) ([]models.Form, error) {
	var forms []models.Form

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		forms = nil
		err := c.doJSON(ctx, http.MethodGet, "/api/v1/forms", nil, &forms, true)
		if err != nil && apierr.Retriable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return forms, nil
}

func (c *HTTPClient) PresignAttachment(ctx context.Context, submissionID string) (string, string, error) {
	resp := &presignResponse{}
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/attachments/presign",
		&presignRequest{SubmissionID: submissionID}, resp, true)
	if err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

// doJSON performs one JSON request/response round-trip. On a 401 carrying
// the expired-token message it refreshes the token pair once and replays
// the request, mirroring the behavior of an auth interceptor.
func (c *HTTPClient) doJSON(ctx context.Context, method string, path string, body any, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var access, refresh string
	if authed {
		access, refresh = c.tokens()
	}

	err := c.roundTrip(ctx, method, path, payload, out, access)
	if err == nil {
		return nil
	}

	if !authed || refresh == "" {
		return err
	}
	if apierr.StatusOf(err) != http.StatusUnauthorized {
		return err
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Message != common.ErrTokenExpired.Error() {
		return err
	}

	if rerr := c.refreshAndRotate(ctx, access, refresh); rerr != nil {
		return err
	}

	access, _ = c.tokens()
	return c.roundTrip(ctx, method, path, payload, out, access)
}

// refreshAndRotate exchanges the refresh token for a new pair. Callers that
// hit a 401 concurrently are serialized here; whoever lost the race finds
// the pair already rotated and replays with it instead of consuming the
// fresh refresh token too.
func (c *HTTPClient) refreshAndRotate(ctx context.Context, staleAccess string, staleRefresh string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh := c.tokens()
	if access != staleAccess || refresh != staleRefresh {
		return nil
	}

	if _, err := c.Refresh(ctx, refresh); err != nil {
		return err
	}
	if c.onTokens != nil {
		access, refresh = c.tokens()
		c.onTokens(&TokenPair{AccessToken: access, RefreshToken: refresh})
	}
	return nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method string, path string, payload []byte, out any, accessToken string) error {
	var reader *bytes.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return c.normalize(ctx, method, path, nil, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthHeaderName, common.AuthSchemePrefix+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.normalize(ctx, method, path, nil, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.normalize(ctx, method, path, resp, nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
