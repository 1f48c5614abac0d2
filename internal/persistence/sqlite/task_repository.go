package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/persistence"
)

// TaskRepository persists follow-up tasks.
type TaskRepository struct {
	pool *Pool
}

// NewTaskRepository constructs a task repository over the pool.
func NewTaskRepository(pool *Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `id, title, description, assignee_id, due_date, status, related_lead_id, created_at, updated_at`

func scanTask(row rowScanner) (application.Task, error) {
	var (
		task                 application.Task
		dueDate, relatedLead sql.NullString
		status               string
		createdAt, updatedAt string
	)
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.AssigneeID,
		&dueDate, &status, &relatedLead, &createdAt, &updatedAt)
	if err != nil {
		return application.Task{}, err
	}
	if task.DueDate, err = parseTimePtr(dueDate); err != nil {
		return application.Task{}, err
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Task{}, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Task{}, err
	}
	task.Status = application.TaskStatus(status)
	if relatedLead.Valid {
		id := relatedLead.String
		task.RelatedLeadID = &id
	}
	return task, nil
}

// CreateTask stores one task.
func (r *TaskRepository) CreateTask(ctx context.Context, task application.Task) (application.Task, error) {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.AssigneeID,
		formatTimePtr(task.DueDate), string(task.Status), nullString(task.RelatedLeadID),
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt))
	if err != nil {
		return application.Task{}, mapError(err)
	}
	return r.GetTask(ctx, task.ID)
}

// GetTask fetches one task by id.
func (r *TaskRepository) GetTask(ctx context.Context, id string) (application.Task, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		return application.Task{}, mapError(err)
	}
	return task, nil
}

// ListTasks enumerates tasks matching the filter ordered by creation time.
func (r *TaskRepository) ListTasks(ctx context.Context, filter application.TaskFilter) ([]application.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var clauses []string
	var args []any
	if filter.AssigneeID != "" {
		clauses = append(clauses, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DueBefore != nil {
		clauses = append(clauses, "due_date IS NOT NULL AND due_date < ?")
		args = append(args, formatTime(*filter.DueBefore))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tasks []application.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, mapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return tasks, nil
}

// UpdateTask applies a patch as a single parameterized UPDATE.
func (r *TaskRepository) UpdateTask(ctx context.Context, id string, patch application.TaskPatch) (application.Task, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.AssigneeID != nil {
		set("assignee_id", *patch.AssigneeID)
	}
	if patch.DueDate != nil {
		set("due_date", formatTime(*patch.DueDate))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.RelatedLeadID != nil {
		set("related_lead_id", *patch.RelatedLeadID)
	}
	if len(sets) == 0 {
		return r.GetTask(ctx, id)
	}
	set("updated_at", formatTime(time.Now()))
	args = append(args, id)

	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return application.Task{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Task{}, mapError(err)
	}
	if affected == 0 {
		return application.Task{}, persistence.ErrNotFound
	}
	return r.GetTask(ctx, id)
}

// DeleteTask removes one task by id.
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
