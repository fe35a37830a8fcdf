package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/AnshRaj112/mindsoothe-backend/internal/logging"
	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
	"github.com/AnshRaj112/mindsoothe-backend/internal/services"
)

const maxJournalBodyBytes = 64 << 10

// JournalService is the part of services.JournalService the handlers use.
type JournalService interface {
	Submit(ctx context.Context, text string) (services.SubmitResult, error)
	Recent(ctx context.Context, limit int) ([]models.JournalEntry, error)
}

// CreateJournalRequest is the POST /api/journal body. Text stays raw so a
// missing, null or non-string value can be told apart from a string.
type CreateJournalRequest struct {
	Text json.RawMessage `json:"text"`
}

// CreateJournalResponse is a stored entry with its reflection.
type CreateJournalResponse struct {
	ID          string          `json:"id"`
	Mood        string          `json:"mood"`
	Reflection  string          `json:"reflection"`
	Suggestions []string        `json:"suggestions"`
	Severity    models.Severity `json:"severity"`
	CreatedAt   string          `json:"createdAt"`
}

// NoticeResponse is returned for urgent and moderate entries.
type NoticeResponse struct {
	Severity models.Severity `json:"severity"`
	Message  string          `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type JournalHandler struct {
	service JournalService
	logger  *zap.Logger
}

func NewJournalHandler(service JournalService, logger *zap.Logger) *JournalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalHandler{service: service, logger: logger}
}

// CreateJournal runs a submission through the journal pipeline.
func (h *JournalHandler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJournalBodyBytes)

	// A body that is not JSON, or a text that is not a string, is treated
	// as missing text and rejected by validation.
	var text string
	var req CreateJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Text) > 0 {
		if err := json.Unmarshal(req.Text, &text); err != nil {
			text = ""
		}
	}

	result, err := h.service.Submit(r.Context(), text)
	if err != nil {
		var perr *services.PipelineError
		if errors.As(err, &perr) {
			writeJSON(w, perr.HTTPStatus(), ErrorResponse{Error: perr.Message})
			return
		}
		logging.FromContext(r.Context(), h.logger).Error("unexpected error in journal API", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "An unexpected error occurred, please try again later."})
		return
	}

	if result.Entry == nil {
		writeJSON(w, http.StatusOK, NoticeResponse{Severity: result.Severity, Message: result.Message})
		return
	}
	writeJSON(w, http.StatusOK, newCreateJournalResponse(*result.Entry))
}

// GetJournals returns the newest entries, newest first.
func (h *JournalHandler) GetJournals(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultRecentLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = min(parsed, services.MaxRecentLimit)
		}
	}

	entries, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Error("error fetching journal entries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Database connection failed"})
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func newCreateJournalResponse(e models.JournalEntry) CreateJournalResponse {
	return CreateJournalResponse{
		ID:          e.ID,
		Mood:        e.Mood,
		Reflection:  e.Reflection,
		Suggestions: e.Suggestions,
		Severity:    e.Severity,
		CreatedAt:   e.CreatedAt.UTC().Format(models.TimestampLayout),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
