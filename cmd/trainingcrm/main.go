package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/config"
	"github.com/example/training-crm/internal/grouping"
	httptransport "github.com/example/training-crm/internal/http"
	"github.com/example/training-crm/internal/persistence/sqlite"
	"github.com/example/training-crm/internal/recurrence"
	"github.com/example/training-crm/internal/scheduler"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	sessionRepo := sqlite.NewSessionRepository(pool)
	leadRepo := sqlite.NewLeadRepository(pool)
	trainerRepo := sqlite.NewTrainerRepository(pool)
	taskRepo := sqlite.NewTaskRepository(pool)

	expander := recurrence.NewExpander(cfg.MaxOccurrences)
	detector := scheduler.NewDetector(scheduler.Config{
		Buffer:         cfg.ConflictBuffer,
		DayStart:       cfg.DayStart,
		DayEnd:         cfg.DayEnd,
		SlotStep:       cfg.SlotStep,
		MaxSuggestions: cfg.MaxSuggestions,
	})
	grouper := grouping.NewDetector(grouping.Config{
		Majority:       cfg.GroupingMajority,
		MinClusterSize: cfg.GroupingMinClusterSize,
	}, now)

	schedulingService := application.NewSchedulingService(
		sessionRepo, leadRepo, trainerRepo,
		expander, detector, grouper,
		idGenerator, now, logger)
	leadService := application.NewLeadService(leadRepo, idGenerator, now, logger)
	trainerService := application.NewTrainerService(trainerRepo, idGenerator, now, logger)
	taskService := application.NewTaskService(taskRepo, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Sessions: httptransport.NewSessionHandler(schedulingService, logger),
		Leads:    httptransport.NewLeadHandler(leadService, logger),
		Trainers: httptransport.NewTrainerHandler(trainerService, logger),
		Tasks:    httptransport.NewTaskHandler(taskService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("training CRM API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
