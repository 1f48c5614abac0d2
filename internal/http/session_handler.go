package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/grouping"
	"github.com/example/training-crm/internal/recurrence"
	"github.com/example/training-crm/internal/scheduler"
)

type sessionService interface {
	CreateSingleSession(ctx context.Context, input application.SessionInput) (application.Session, []scheduler.Conflict, error)
	CreateRecurringSeries(ctx context.Context, input application.SessionInput) (application.SeriesResult, error)
	CheckConflicts(ctx context.Context, trainerID, studentID string, start, end time.Time, excludeID string) (application.ConflictReport, error)
	GetSession(ctx context.Context, id string) (application.Session, error)
	ListSessions(ctx context.Context, filter application.SessionFilter) ([]application.Session, error)
	UpdateSession(ctx context.Context, id string, patch application.SessionPatch) (application.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status application.Status, adminOverride bool) (application.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteRecurringGroup(ctx context.Context, groupID string) (int, error)
	GroupedSessions(ctx context.Context) (grouping.Result, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, responder: newResponder(logger)}
}

// Create books a single session or, when the body carries a recurrence rule,
// a whole series.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if errs := validateRequest(req); errs != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  errs,
		})
		return
	}

	input := req.toInput()
	if input.Recurrence.IsRecurring() {
		result, err := h.service.CreateRecurringSeries(r.Context(), input)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSeriesResponse(result))
		return
	}

	session, warnings, err := h.service.CreateSingleSession(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{
		Session:  toSessionDTO(session),
		Warnings: toConflictDTOs(warnings),
	})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), buildSessionFilter(r.URL.Query()))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{
		Sessions: toSessionDTOs(sessions),
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	var req sessionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	patch, errs := req.toPatch()
	if errs != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  errs,
		})
		return
	}

	session, err := h.service.UpdateSession(r.Context(), id, patch)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	status, valid := application.ParseStatus(req.Status)
	if !valid {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  map[string]string{"status": "invalid status value"},
		})
		return
	}

	session, err := h.service.UpdateSessionStatus(r.Context(), id, status, req.AdminOverride)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	if err := h.service.DeleteSession(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	count, err := h.service.DeleteRecurringGroup(r.Context(), groupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteGroupResponse{DeletedCount: count})
}

func (h *SessionHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req checkConflictsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if errs := validateRequest(req); errs != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  errs,
		})
		return
	}

	report, err := h.service.CheckConflicts(r.Context(),
		req.TrainerID, req.StudentID,
		parseTimestamp(req.StartTime), parseTimestamp(req.EndTime),
		req.ExcludeSessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictReportResponse{
		HasConflicts: len(report.Conflicts) > 0,
		Conflicts:    toConflictDTOs(report.Conflicts),
		Suggestions:  toSlotDTOs(report.Suggestions),
	})
}

func (h *SessionHandler) Groups(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	result, err := h.service.GroupedSessions(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGroupingResponse(result))
}

// ------------------------------ requests ----------------------------------

type sessionRequest struct {
	TrainerID  string             `json:"trainer_id" validate:"required"`
	StudentID  string             `json:"student_id" validate:"required"`
	StartTime  string             `json:"start_time" validate:"required"`
	EndTime    string             `json:"end_time" validate:"required"`
	Location   string             `json:"location" validate:"required"`
	Service    string             `json:"service" validate:"required"`
	Value      int64              `json:"value" validate:"gte=0"`
	Notes      string             `json:"notes"`
	Status     string             `json:"status"`
	Source     string             `json:"source"`
	Recurrence *recurrenceRequest `json:"recurrence"`
}

type recurrenceRequest struct {
	Type     string   `json:"type" validate:"required"`
	Interval int      `json:"interval" validate:"gte=0"`
	WeekDays []string `json:"week_days"`
	EndType  string   `json:"end_type"`
	EndCount int      `json:"end_count" validate:"gte=0"`
	EndDate  string   `json:"end_date"`
}

func (r sessionRequest) toInput() application.SessionInput {
	input := application.SessionInput{
		TrainerID: strings.TrimSpace(r.TrainerID),
		StudentID: strings.TrimSpace(r.StudentID),
		StartTime: parseTimestamp(r.StartTime),
		EndTime:   parseTimestamp(r.EndTime),
		Location:  r.Location,
		Service:   r.Service,
		Value:     r.Value,
		Notes:     r.Notes,
	}
	if r.Status != "" {
		if status, ok := application.ParseStatus(r.Status); ok {
			input.Status = status
		} else {
			input.Status = application.Status(r.Status)
		}
	}
	if r.Source != "" {
		input.Source = application.Source(r.Source)
	}
	if r.Recurrence != nil {
		input.Recurrence = r.Recurrence.toRule()
	}
	return input
}

func (r recurrenceRequest) toRule() recurrence.Rule {
	rule := recurrence.Rule{
		Interval: r.Interval,
		EndCount: r.EndCount,
		EndDate:  parseTimestamp(r.EndDate),
	}
	if parsed, ok := recurrence.ParseType(r.Type); ok {
		rule.Type = parsed
	} else {
		rule.Type = recurrence.Type(r.Type)
	}
	if parsed, ok := recurrence.ParseEndType(r.EndType); ok {
		rule.EndType = parsed
	} else {
		rule.EndType = recurrence.EndType(r.EndType)
	}
	days, _ := recurrence.ParseWeekdays(r.WeekDays)
	rule.WeekDays = days
	return rule
}

type sessionPatchRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Location  *string `json:"location"`
	Service   *string `json:"service"`
	Value     *int64  `json:"value"`
	Notes     *string `json:"notes"`
	Status    *string `json:"status"`
}

func (r sessionPatchRequest) toPatch() (application.SessionPatch, map[string]string) {
	var patch application.SessionPatch
	if r.StartTime != nil {
		ts := parseTimestamp(*r.StartTime)
		if ts.IsZero() {
			return patch, map[string]string{"start_time": "must be an RFC 3339 timestamp"}
		}
		patch.StartTime = &ts
	}
	if r.EndTime != nil {
		ts := parseTimestamp(*r.EndTime)
		if ts.IsZero() {
			return patch, map[string]string{"end_time": "must be an RFC 3339 timestamp"}
		}
		patch.EndTime = &ts
	}
	patch.Location = r.Location
	patch.Service = r.Service
	patch.Value = r.Value
	patch.Notes = r.Notes
	if r.Status != nil {
		status, ok := application.ParseStatus(*r.Status)
		if !ok {
			return patch, map[string]string{"status": "invalid status value"}
		}
		patch.Status = &status
	}
	return patch, nil
}

type statusRequest struct {
	Status        string `json:"status"`
	AdminOverride bool   `json:"admin_override"`
}

type checkConflictsRequest struct {
	TrainerID        string `json:"trainer_id" validate:"required"`
	StudentID        string `json:"student_id"`
	StartTime        string `json:"start_time" validate:"required"`
	EndTime          string `json:"end_time" validate:"required"`
	ExcludeSessionID string `json:"exclude_session_id"`
}

func buildSessionFilter(values url.Values) application.SessionFilter {
	filter := application.SessionFilter{
		TrainerID:         strings.TrimSpace(values.Get("trainer_id")),
		StudentID:         strings.TrimSpace(values.Get("student_id")),
		RecurrenceGroupID: strings.TrimSpace(values.Get("group_id")),
	}
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		if status, ok := application.ParseStatus(raw); ok {
			filter.Status = &status
		}
	}
	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		if ts := parseTimestamp(raw); !ts.IsZero() {
			filter.From = &ts
		}
	}
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		if ts := parseTimestamp(raw); !ts.IsZero() {
			filter.To = &ts
		}
	}
	return filter
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts
	}
	return time.Time{}
}

// ------------------------------ responses ---------------------------------

type sessionResponse struct {
	Session  sessionDTO    `json:"session"`
	Warnings []conflictDTO `json:"warnings,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

type seriesResponse struct {
	GroupID string       `json:"group_id"`
	Created []sessionDTO `json:"created"`
	Skipped []skippedDTO `json:"skipped,omitempty"`
}

type skippedDTO struct {
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
	Conflicts []conflictDTO `json:"conflicts"`
}

type deleteGroupResponse struct {
	DeletedCount int `json:"deleted_count"`
}

type conflictReportResponse struct {
	HasConflicts bool          `json:"has_conflicts"`
	Conflicts    []conflictDTO `json:"conflicts,omitempty"`
	Suggestions  []slotDTO     `json:"suggestions,omitempty"`
}

type sessionDTO struct {
	ID                 string         `json:"id"`
	TrainerID          string         `json:"trainer_id"`
	StudentID          string         `json:"student_id"`
	StartTime          string         `json:"start_time"`
	EndTime            string         `json:"end_time"`
	Location           string         `json:"location"`
	Service            string         `json:"service"`
	Value              int64          `json:"value"`
	Notes              string         `json:"notes,omitempty"`
	Status             string         `json:"status"`
	Source             string         `json:"source,omitempty"`
	RecurrenceGroupID  *string        `json:"recurrence_group_id,omitempty"`
	IsRecurrenceParent bool           `json:"is_recurrence_parent,omitempty"`
	ParentSessionID    *string        `json:"parent_session_id,omitempty"`
	Recurrence         *recurrenceDTO `json:"recurrence,omitempty"`
	IsModified         bool           `json:"is_modified,omitempty"`
	OriginalStartTime  *string        `json:"original_start_time,omitempty"`
	OriginalEndTime    *string        `json:"original_end_time,omitempty"`
	CreatedAt          string         `json:"created_at"`
	UpdatedAt          string         `json:"updated_at"`
}

type recurrenceDTO struct {
	Type     string   `json:"type"`
	Interval int      `json:"interval"`
	WeekDays []string `json:"week_days,omitempty"`
	EndType  string   `json:"end_type,omitempty"`
	EndCount int      `json:"end_count,omitempty"`
	EndDate  string   `json:"end_date,omitempty"`
}

func toSessionDTO(session application.Session) sessionDTO {
	dto := sessionDTO{
		ID:                 session.ID,
		TrainerID:          session.TrainerID,
		StudentID:          session.StudentID,
		StartTime:          formatTimestamp(session.StartTime),
		EndTime:            formatTimestamp(session.EndTime),
		Location:           session.Location,
		Service:            session.Service,
		Value:              session.Value,
		Notes:              session.Notes,
		Status:             string(session.Status),
		Source:             string(session.Source),
		RecurrenceGroupID:  session.RecurrenceGroupID,
		IsRecurrenceParent: session.IsRecurrenceParent,
		ParentSessionID:    session.ParentSessionID,
		IsModified:         session.IsModified,
		CreatedAt:          formatTimestamp(session.CreatedAt),
		UpdatedAt:          formatTimestamp(session.UpdatedAt),
	}
	if session.Recurrence.IsRecurring() {
		rec := recurrenceDTO{
			Type:     string(session.Recurrence.Type),
			Interval: session.Recurrence.Interval,
			WeekDays: recurrence.WeekdayNames(session.Recurrence.WeekDays),
			EndType:  string(session.Recurrence.EndType),
			EndCount: session.Recurrence.EndCount,
		}
		if !session.Recurrence.EndDate.IsZero() {
			rec.EndDate = formatTimestamp(session.Recurrence.EndDate)
		}
		dto.Recurrence = &rec
	}
	if session.OriginalStartTime != nil {
		ts := formatTimestamp(*session.OriginalStartTime)
		dto.OriginalStartTime = &ts
	}
	if session.OriginalEndTime != nil {
		ts := formatTimestamp(*session.OriginalEndTime)
		dto.OriginalEndTime = &ts
	}
	return dto
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	return out
}

func toSeriesResponse(result application.SeriesResult) seriesResponse {
	resp := seriesResponse{
		GroupID: result.GroupID,
		Created: toSessionDTOs(result.Created),
	}
	for _, skipped := range result.Skipped {
		resp.Skipped = append(resp.Skipped, skippedDTO{
			StartTime: formatTimestamp(skipped.StartTime),
			EndTime:   formatTimestamp(skipped.EndTime),
			Conflicts: toConflictDTOs(skipped.Conflicts),
		})
	}
	return resp
}

// ------------------------------ groups ------------------------------------

type groupingResponse struct {
	Recurring  []groupDTO   `json:"recurring"`
	Individual []sessionRef `json:"individual"`
}

type groupDTO struct {
	Cadence     string        `json:"cadence"`
	Pattern     string        `json:"pattern"`
	TrainerID   string        `json:"trainer_id"`
	StudentID   string        `json:"student_id"`
	Location    string        `json:"location"`
	TimeSlot    string        `json:"time_slot"`
	Sessions    []sessionRef  `json:"sessions"`
	NextSession *sessionRef   `json:"next_session,omitempty"`
	Stats       groupStatsDTO `json:"stats"`
}

type groupStatsDTO struct {
	Total          int     `json:"total"`
	Upcoming       int     `json:"upcoming"`
	Completed      int     `json:"completed"`
	Cancelled      int     `json:"cancelled"`
	NoShow         int     `json:"no_show"`
	CompletionRate float64 `json:"completion_rate"`
}

type sessionRef struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func toGroupingResponse(result grouping.Result) groupingResponse {
	resp := groupingResponse{}
	for _, group := range result.Recurring {
		dto := groupDTO{
			Cadence:   string(group.Cadence),
			Pattern:   group.Pattern,
			TrainerID: group.TrainerID,
			StudentID: group.StudentID,
			Location:  group.Location,
			TimeSlot:  group.TimeSlot,
			Stats: groupStatsDTO{
				Total:          group.Stats.Total,
				Upcoming:       group.Stats.Upcoming,
				Completed:      group.Stats.Completed,
				Cancelled:      group.Stats.Cancelled,
				NoShow:         group.Stats.NoShow,
				CompletionRate: group.Stats.CompletionRate,
			},
		}
		for _, session := range group.Sessions {
			dto.Sessions = append(dto.Sessions, toSessionRef(session))
		}
		if group.NextSession != nil {
			ref := toSessionRef(*group.NextSession)
			dto.NextSession = &ref
		}
		resp.Recurring = append(resp.Recurring, dto)
	}
	for _, session := range result.Individual {
		resp.Individual = append(resp.Individual, toSessionRef(session))
	}
	return resp
}

func toSessionRef(session grouping.Session) sessionRef {
	return sessionRef{
		ID:        session.ID,
		StartTime: formatTimestamp(session.Start),
		EndTime:   formatTimestamp(session.End),
		Status:    session.Status,
	}
}
