package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/training-crm/internal/application"
)

type taskService interface {
	CreateTask(ctx context.Context, input application.TaskInput) (application.Task, error)
	GetTask(ctx context.Context, id string) (application.Task, error)
	ListTasks(ctx context.Context, filter application.TaskFilter) ([]application.Task, error)
	UpdateTask(ctx context.Context, id string, patch application.TaskPatch) (application.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type TaskHandler struct {
	service   taskService
	responder responder
}

func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, responder: newResponder(logger)}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req taskRequest
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

	task, err := h.service.CreateTask(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, taskResponse{Task: toTaskDTO(task)})
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), buildTaskFilter(r.URL.Query()))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTasksResponse{Tasks: toTaskDTOs(tasks)})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := TaskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: toTaskDTO(task)})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := TaskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	var req taskPatchRequest
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

	task, err := h.service.UpdateTask(r.Context(), id, patch)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: toTaskDTO(task)})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := TaskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type taskRequest struct {
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description"`
	AssigneeID    string  `json:"assignee_id" validate:"required"`
	DueDate       string  `json:"due_date"`
	Status        string  `json:"status"`
	RelatedLeadID *string `json:"related_lead_id"`
}

func (r taskRequest) toInput() application.TaskInput {
	input := application.TaskInput{
		Title:         strings.TrimSpace(r.Title),
		Description:   r.Description,
		AssigneeID:    strings.TrimSpace(r.AssigneeID),
		RelatedLeadID: r.RelatedLeadID,
	}
	if ts := parseTimestamp(r.DueDate); !ts.IsZero() {
		input.DueDate = &ts
	}
	if r.Status != "" {
		if status, ok := application.ParseTaskStatus(r.Status); ok {
			input.Status = status
		} else {
			input.Status = application.TaskStatus(r.Status)
		}
	}
	return input
}

type taskPatchRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	AssigneeID    *string `json:"assignee_id"`
	DueDate       *string `json:"due_date"`
	Status        *string `json:"status"`
	RelatedLeadID *string `json:"related_lead_id"`
}

func (r taskPatchRequest) toPatch() (application.TaskPatch, map[string]string) {
	patch := application.TaskPatch{
		Title:         r.Title,
		Description:   r.Description,
		AssigneeID:    r.AssigneeID,
		RelatedLeadID: r.RelatedLeadID,
	}
	if r.DueDate != nil {
		ts := parseTimestamp(*r.DueDate)
		if ts.IsZero() {
			return patch, map[string]string{"due_date": "must be an RFC 3339 timestamp"}
		}
		patch.DueDate = &ts
	}
	if r.Status != nil {
		status, ok := application.ParseTaskStatus(*r.Status)
		if !ok {
			return patch, map[string]string{"status": "unknown task status"}
		}
		patch.Status = &status
	}
	return patch, nil
}

func buildTaskFilter(values url.Values) application.TaskFilter {
	filter := application.TaskFilter{
		AssigneeID: strings.TrimSpace(values.Get("assignee_id")),
	}
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		if status, ok := application.ParseTaskStatus(raw); ok {
			filter.Status = status
		}
	}
	if raw := strings.TrimSpace(values.Get("due_before")); raw != "" {
		if ts := parseTimestamp(raw); !ts.IsZero() {
			filter.DueBefore = &ts
		}
	}
	return filter
}

type taskResponse struct {
	Task taskDTO `json:"task"`
}

type listTasksResponse struct {
	Tasks []taskDTO `json:"tasks"`
}

type taskDTO struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	AssigneeID    string  `json:"assignee_id"`
	DueDate       *string `json:"due_date,omitempty"`
	Status        string  `json:"status"`
	RelatedLeadID *string `json:"related_lead_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toTaskDTO(task application.Task) taskDTO {
	dto := taskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		AssigneeID:    task.AssigneeID,
		Status:        string(task.Status),
		RelatedLeadID: task.RelatedLeadID,
		CreatedAt:     formatTimestamp(task.CreatedAt),
		UpdatedAt:     formatTimestamp(task.UpdatedAt),
	}
	if task.DueDate != nil {
		ts := formatTimestamp(*task.DueDate)
		dto.DueDate = &ts
	}
	return dto
}

func toTaskDTOs(tasks []application.Task) []taskDTO {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return out
}
