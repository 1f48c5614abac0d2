package sqlite

import (
	"context"
	"strings"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/persistence"
)

// TrainerRepository persists the trainer catalog.
type TrainerRepository struct {
	pool *Pool
}

// NewTrainerRepository constructs a trainer repository over the pool.
func NewTrainerRepository(pool *Pool) *TrainerRepository {
	return &TrainerRepository{pool: pool}
}

const trainerColumns = `id, name, email, phone, specialties, source, active, created_at, updated_at`

func scanTrainer(row rowScanner) (application.Trainer, error) {
	var (
		trainer              application.Trainer
		specialties, source  string
		createdAt, updatedAt string
	)
	err := row.Scan(&trainer.ID, &trainer.Name, &trainer.Email, &trainer.Phone,
		&specialties, &source, &trainer.Active, &createdAt, &updatedAt)
	if err != nil {
		return application.Trainer{}, err
	}
	if trainer.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Trainer{}, err
	}
	if trainer.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Trainer{}, err
	}
	if specialties != "" {
		trainer.Specialties = strings.Split(specialties, ",")
	}
	trainer.Source = application.Source(source)
	return trainer, nil
}

// CreateTrainer stores one trainer.
func (r *TrainerRepository) CreateTrainer(ctx context.Context, trainer application.Trainer) (application.Trainer, error) {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO trainers (`+trainerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trainer.ID, trainer.Name, trainer.Email, trainer.Phone,
		strings.Join(trainer.Specialties, ","), string(trainer.Source), trainer.Active,
		formatTime(trainer.CreatedAt), formatTime(trainer.UpdatedAt))
	if err != nil {
		return application.Trainer{}, mapError(err)
	}
	return r.GetTrainer(ctx, trainer.ID)
}

// GetTrainer fetches one trainer by id.
func (r *TrainerRepository) GetTrainer(ctx context.Context, id string) (application.Trainer, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+trainerColumns+` FROM trainers WHERE id = ?`, id)
	trainer, err := scanTrainer(row)
	if err != nil {
		return application.Trainer{}, mapError(err)
	}
	return trainer, nil
}

// ListTrainers enumerates trainers ordered by name, optionally active only.
func (r *TrainerRepository) ListTrainers(ctx context.Context, activeOnly bool) ([]application.Trainer, error) {
	query := `SELECT ` + trainerColumns + ` FROM trainers`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var trainers []application.Trainer
	for rows.Next() {
		trainer, err := scanTrainer(rows)
		if err != nil {
			return nil, mapError(err)
		}
		trainers = append(trainers, trainer)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return trainers, nil
}

// UpdateTrainer replaces a stored trainer.
func (r *TrainerRepository) UpdateTrainer(ctx context.Context, trainer application.Trainer) (application.Trainer, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE trainers SET name = ?, email = ?, phone = ?, specialties = ?,
			source = ?, active = ?, updated_at = ? WHERE id = ?`,
		trainer.Name, trainer.Email, trainer.Phone,
		strings.Join(trainer.Specialties, ","),
		string(trainer.Source), trainer.Active,
		formatTime(trainer.UpdatedAt), trainer.ID)
	if err != nil {
		return application.Trainer{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Trainer{}, mapError(err)
	}
	if affected == 0 {
		return application.Trainer{}, persistence.ErrNotFound
	}
	return r.GetTrainer(ctx, trainer.ID)
}

// DeleteTrainer removes one trainer by id.
func (r *TrainerRepository) DeleteTrainer(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM trainers WHERE id = ?`, id)
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

// TrainerExists reports whether the id names an active trainer.
func (r *TrainerRepository) TrainerExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM trainers WHERE id = ? AND active = 1`, id).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}
