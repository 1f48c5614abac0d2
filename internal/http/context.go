package http

import (
	"context"
	"log/slog"

	"github.com/example/training-crm/internal/logging"
)

type contextKey string

const (
	sessionIDContextKey contextKey = "session_id"
	groupIDContextKey   contextKey = "group_id"
	leadIDContextKey    contextKey = "lead_id"
	trainerIDContextKey contextKey = "trainer_id"
	taskIDContextKey    contextKey = "task_id"
)

// ContextWithSessionID injects the session identifier resolved from the path.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, id)
}

// SessionIDFromContext extracts a session identifier from the context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok
}

// ContextWithGroupID injects the recurrence group identifier from the path.
func ContextWithGroupID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, groupIDContextKey, id)
}

// GroupIDFromContext extracts a recurrence group identifier from the context.
func GroupIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(groupIDContextKey).(string)
	return id, ok
}

// ContextWithLeadID injects the lead identifier resolved from the path.
func ContextWithLeadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, leadIDContextKey, id)
}

// LeadIDFromContext extracts a lead identifier from the context.
func LeadIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(leadIDContextKey).(string)
	return id, ok
}

// ContextWithTrainerID injects the trainer identifier resolved from the path.
func ContextWithTrainerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, trainerIDContextKey, id)
}

// TrainerIDFromContext extracts a trainer identifier from the context.
func TrainerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(trainerIDContextKey).(string)
	return id, ok
}

// ContextWithTaskID injects the task identifier resolved from the path.
func ContextWithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDContextKey, id)
}

// TaskIDFromContext extracts a task identifier from the context.
func TaskIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(taskIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request scoped logger when present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
