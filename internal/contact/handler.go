package contact

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/solar-site/internal/csvstore"
)

const (
	msgInvalidJSON   = "Invalid JSON payload."
	msgMissingFields = "Please provide at least name, email, and message."
	msgSaveFailed    = "Unable to save submission."
)

// Appender persists one record.
type Appender interface {
	Append(csvstore.Record) error
}

// Handler serves POST submissions.
type Handler struct {
	logger       *slog.Logger
	store        Appender
	maxBodyBytes int64
	now          func() time.Time
}

func NewHandler(logger *slog.Logger, store Appender, maxBodyBytes int64) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		maxBodyBytes: maxBodyBytes,
		now:          time.Now,
	}
}

// ServeHTTP handles one submission. A body larger than the limit aborts the
// connection without a response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Aborting oversized submission",
				slog.Int64("limit", tooLarge.Limit),
				slog.String("remote", r.RemoteAddr))
		} else {
			h.logger.Debug("Submission body read failed", slog.Any("err", err))
		}
		panic(http.ErrAbortHandler)
	}

	sub, err := ParseSubmission(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalidJSON})
		return
	}

	if err := sub.Validate(); err != nil {
		h.logger.Debug("Rejected submission", slog.Any("err", err))
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: msgMissingFields})
		return
	}

	if err := h.store.Append(sub.Record(h.now())); err != nil {
		h.logger.Error("Failed to store submission", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgSaveFailed})
		return
	}

	h.logger.Info("Stored submission")
	writeJSON(w, http.StatusCreated, successBody{Success: true})
}

// Preflight answers the CORS preflight for the submission endpoint.
func Preflight(w http.ResponseWriter, _ *http.Request) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
	header.Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
