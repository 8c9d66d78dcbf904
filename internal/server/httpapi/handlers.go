package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/formrelay/internal/server/models"
	"github.com/google/uuid"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type submissionRequest struct {
	ID        string          `json:"id"`
	FormID    string          `json:"form_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type submissionResponse struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

type formResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type presignRequest struct {
	SubmissionID string `json:"submission_id"`
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if err := s.users.Register(r.Context(), req.Username, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	all, err := s.forms.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := make([]formResponse, 0, len(all))
	for _, f := range all {
		result = append(result, formResponse{ID: f.ID, Title: f.Title})
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCreateSubmission stores a submission. A replayed submission ID is
// acknowledged with 200 instead of 201; nothing is written twice.
func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := uuid.Parse(req.ID); err != nil {
		writeError(w, http.StatusBadRequest, "submission id must be a uuid")
		return
	}
	if req.FormID == "" || len(req.Payload) == 0 {
		writeError(w, http.StatusBadRequest, "form_id and payload are required")
		return
	}

	sub := &models.Submission{
		ID:              req.ID,
		UserID:          UserID(r.Context()),
		FormID:          req.FormID,
		Payload:         req.Payload,
		ClientCreatedAt: req.CreatedAt,
	}

	duplicate, err := s.submissions.Accept(r.Context(), sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, submissionResponse{ID: sub.ID, Duplicate: duplicate})
}

func (s *Server) handlePresignAttachment(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SubmissionID == "" {
		writeError(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	key, url, err := s.submissions.PresignAttachmentURL(r.Context(), req.SubmissionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presignResponse{Key: key, URL: url})
}
