package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/scheduler"
)

var (
	errBadRequestBody   = errors.New("request body is not valid JSON")
	errInvalidSessionID = errors.New("session id is missing or invalid")
	errInvalidGroupID   = errors.New("recurrence group id is missing or invalid")
	errInvalidLeadID    = errors.New("lead id is missing or invalid")
	errInvalidTrainerID = errors.New("trainer id is missing or invalid")
	errInvalidTaskID    = errors.New("task id is missing or invalid")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto HTTP status codes. Conflict
// errors carry the full conflict list and suggested slots in the body so the
// client can offer alternatives.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	var conflictErr *application.ConflictError
	switch {
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrGroupNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the recurrence group was not found"})
	case errors.Is(err, application.ErrNoInstancesGenerated):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "NO_INSTANCES",
			Message:   "the recurrence rule produced no sessions",
		})
	case errors.As(err, &conflictErr):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode:   "SCHEDULING_CONFLICT",
			Message:     conflictErr.Error(),
			Conflicts:   toConflictDTOs(conflictErr.Conflicts),
			Suggestions: toSlotDTOs(conflictErr.Suggestions),
		})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  vErr.FieldErrors,
		})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode   string            `json:"error_code,omitempty"`
	Message     string            `json:"message"`
	Errors      map[string]string `json:"errors,omitempty"`
	Conflicts   []conflictDTO     `json:"conflicts,omitempty"`
	Suggestions []slotDTO         `json:"suggestions,omitempty"`
}

type conflictDTO struct {
	SessionID string `json:"session_id"`
	Party     string `json:"party"`
	Severity  string `json:"severity"`
	Start     string `json:"start_time"`
	End       string `json:"end_time"`
	Reason    string `json:"reason"`
}

type slotDTO struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

func toConflictDTOs(conflicts []scheduler.Conflict) []conflictDTO {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]conflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, conflictDTO{
			SessionID: c.SessionID,
			Party:     string(c.Party),
			Severity:  string(c.Severity),
			Start:     formatTimestamp(c.Start),
			End:       formatTimestamp(c.End),
			Reason:    c.Reason,
		})
	}
	return out
}

func toSlotDTOs(slots []scheduler.Slot) []slotDTO {
	if len(slots) == 0 {
		return nil
	}
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{Start: formatTimestamp(s.Start), End: formatTimestamp(s.End)})
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
