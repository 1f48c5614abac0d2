package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// TrainerRepository captures the persistence interactions needed by the
// trainer service.
type TrainerRepository interface {
	CreateTrainer(ctx context.Context, trainer Trainer) (Trainer, error)
	GetTrainer(ctx context.Context, id string) (Trainer, error)
	ListTrainers(ctx context.Context, activeOnly bool) ([]Trainer, error)
	UpdateTrainer(ctx context.Context, trainer Trainer) (Trainer, error)
	DeleteTrainer(ctx context.Context, id string) error
}

// TrainerService manages the coach catalog.
type TrainerService struct {
	trainers    TrainerRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTrainerService wires dependencies for trainer operations.
func NewTrainerService(trainers TrainerRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TrainerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TrainerService{trainers: trainers, idGenerator: idGenerator, now: now, logger: logger}
}

// CreateTrainer validates and persists a new trainer.
func (s *TrainerService) CreateTrainer(ctx context.Context, input TrainerInput) (Trainer, error) {
	vErr := &ValidationError{}
	validateTrainerInput(input, vErr)
	if vErr.HasErrors() {
		return Trainer{}, vErr
	}

	now := s.now()
	trainer := Trainer{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Specialties: normalizeSpecialties(input.Specialties),
		Source:      input.Source,
		Active:      input.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.trainers.CreateTrainer(ctx, trainer)
	if err != nil {
		serviceLogger(ctx, s.logger, "trainers", "create", "trainer_id", trainer.ID).
			ErrorContext(ctx, "failed to persist trainer", "error", err)
		return Trainer{}, mapRepoError(err)
	}
	return created, nil
}

// GetTrainer fetches one trainer by id.
func (s *TrainerService) GetTrainer(ctx context.Context, id string) (Trainer, error) {
	trainer, err := s.trainers.GetTrainer(ctx, id)
	if err != nil {
		return Trainer{}, mapRepoError(err)
	}
	return trainer, nil
}

// ListTrainers enumerates trainers, optionally limited to active ones.
func (s *TrainerService) ListTrainers(ctx context.Context, activeOnly bool) ([]Trainer, error) {
	trainers, err := s.trainers.ListTrainers(ctx, activeOnly)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return trainers, nil
}

// UpdateTrainer validates and applies a full update to an existing trainer.
func (s *TrainerService) UpdateTrainer(ctx context.Context, id string, input TrainerInput) (Trainer, error) {
	vErr := &ValidationError{}
	validateTrainerInput(input, vErr)
	if vErr.HasErrors() {
		return Trainer{}, vErr
	}

	existing, err := s.trainers.GetTrainer(ctx, id)
	if err != nil {
		return Trainer{}, mapRepoError(err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Email = strings.TrimSpace(input.Email)
	existing.Phone = strings.TrimSpace(input.Phone)
	existing.Specialties = normalizeSpecialties(input.Specialties)
	existing.Source = input.Source
	existing.Active = input.Active
	existing.UpdatedAt = s.now()

	updated, err := s.trainers.UpdateTrainer(ctx, existing)
	if err != nil {
		return Trainer{}, mapRepoError(err)
	}
	return updated, nil
}

// DeleteTrainer removes one trainer by id.
func (s *TrainerService) DeleteTrainer(ctx context.Context, id string) error {
	if err := s.trainers.DeleteTrainer(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// TrainerExists reports whether the id names an active trainer. Deactivated
// trainers keep their history but cannot take new bookings.
func (s *TrainerService) TrainerExists(ctx context.Context, id string) (bool, error) {
	trainer, err := s.trainers.GetTrainer(ctx, id)
	if err != nil {
		mapped := mapRepoError(err)
		if mapped == ErrNotFound {
			return false, nil
		}
		return false, mapped
	}
	return trainer.Active, nil
}

func validateTrainerInput(input TrainerInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if email := strings.TrimSpace(input.Email); email != "" && !strings.Contains(email, "@") {
		vErr.add("email", "email is malformed")
	}
	if input.Source != "" {
		if _, ok := ParseSource(string(input.Source)); !ok {
			vErr.add("source", "unknown source")
		}
	}
}

func normalizeSpecialties(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
