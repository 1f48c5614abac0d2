package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// TaskRepository captures the persistence interactions needed by the task
// service.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssigneeID string
	Status     TaskStatus
	DueBefore  *time.Time
}

// TaskService manages follow-up tasks for trainers.
type TaskService struct {
	tasks       TaskRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService wires dependencies for task operations.
func NewTaskService(tasks TaskRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{tasks: tasks, idGenerator: idGenerator, now: now, logger: logger}
}

// CreateTask validates and persists a new task.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (Task, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(input.AssigneeID) == "" {
		vErr.add("assignee_id", "assignee is required")
	}
	if input.Status != "" {
		if _, ok := ParseTaskStatus(string(input.Status)); !ok {
			vErr.add("status", "unknown task status")
		}
	}
	if vErr.HasErrors() {
		return Task{}, vErr
	}

	now := s.now()
	status := input.Status
	if status == "" {
		status = TaskStatusPending
	}
	task := Task{
		ID:            s.idGenerator(),
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		AssigneeID:    input.AssigneeID,
		DueDate:       input.DueDate,
		Status:        status,
		RelatedLeadID: input.RelatedLeadID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.tasks.CreateTask(ctx, task)
	if err != nil {
		serviceLogger(ctx, s.logger, "tasks", "create", "task_id", task.ID).
			ErrorContext(ctx, "failed to persist task", "error", err)
		return Task{}, mapRepoError(err)
	}
	return created, nil
}

// GetTask fetches one task by id.
func (s *TaskService) GetTask(ctx context.Context, id string) (Task, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return Task{}, mapRepoError(err)
	}
	return task, nil
}

// ListTasks enumerates tasks matching the filter.
func (s *TaskService) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	tasks, err := s.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return tasks, nil
}

// UpdateTask applies a structured patch to an existing task.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error) {
	vErr := &ValidationError{}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		vErr.add("title", "title must not be empty")
	}
	if patch.Status != nil {
		if _, ok := ParseTaskStatus(string(*patch.Status)); !ok {
			vErr.add("status", "unknown task status")
		}
	}
	if vErr.HasErrors() {
		return Task{}, vErr
	}

	updated, err := s.tasks.UpdateTask(ctx, id, patch)
	if err != nil {
		return Task{}, mapRepoError(err)
	}
	return updated, nil
}

// DeleteTask removes one task by id.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}
