package application

import (
	"context"
	"log/slog"

	"github.com/example/training-crm/internal/logging"
)

// serviceLogger resolves the request-scoped logger when present, falling back
// to the service's base logger, and tags it with the service and operation.
func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName, "operation", operation}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}
