package sqlite

import (
	"context"
	"strings"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/persistence"
)

// LeadRepository persists leads and converted students.
type LeadRepository struct {
	pool *Pool
}

// NewLeadRepository constructs a lead repository over the pool.
func NewLeadRepository(pool *Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

const leadColumns = `id, name, email, phone, status, source, entry_date, notes, created_at, updated_at`

func scanLead(row rowScanner) (application.Lead, error) {
	var (
		lead                 application.Lead
		status, source       string
		entryDate            string
		createdAt, updatedAt string
	)
	err := row.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone,
		&status, &source, &entryDate, &lead.Notes, &createdAt, &updatedAt)
	if err != nil {
		return application.Lead{}, err
	}
	if lead.EntryDate, err = parseTime(entryDate); err != nil {
		return application.Lead{}, err
	}
	if lead.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Lead{}, err
	}
	if lead.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Lead{}, err
	}
	lead.Status = application.LeadStatus(status)
	lead.Source = application.Source(source)
	return lead, nil
}

// CreateLead stores one lead.
func (r *LeadRepository) CreateLead(ctx context.Context, lead application.Lead) (application.Lead, error) {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.Email, lead.Phone,
		string(lead.Status), string(lead.Source),
		formatTime(lead.EntryDate), lead.Notes,
		formatTime(lead.CreatedAt), formatTime(lead.UpdatedAt))
	if err != nil {
		return application.Lead{}, mapError(err)
	}
	return r.GetLead(ctx, lead.ID)
}

// GetLead fetches one lead by id.
func (r *LeadRepository) GetLead(ctx context.Context, id string) (application.Lead, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if err != nil {
		return application.Lead{}, mapError(err)
	}
	return lead, nil
}

// ListLeads enumerates leads matching the filter ordered by entry date.
func (r *LeadRepository) ListLeads(ctx context.Context, filter application.LeadFilter) ([]application.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var clauses []string
	var args []any
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, string(filter.Source))
	}
	if filter.Search != "" {
		clauses = append(clauses, "(name LIKE ? OR email LIKE ?)")
		needle := "%" + filter.Search + "%"
		args = append(args, needle, needle)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY entry_date, id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var leads []application.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, mapError(err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return leads, nil
}

// UpdateLead replaces a stored lead.
func (r *LeadRepository) UpdateLead(ctx context.Context, lead application.Lead) (application.Lead, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE leads SET name = ?, email = ?, phone = ?, status = ?, source = ?,
			entry_date = ?, notes = ?, updated_at = ? WHERE id = ?`,
		lead.Name, lead.Email, lead.Phone,
		string(lead.Status), string(lead.Source),
		formatTime(lead.EntryDate), lead.Notes,
		formatTime(lead.UpdatedAt), lead.ID)
	if err != nil {
		return application.Lead{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Lead{}, mapError(err)
	}
	if affected == 0 {
		return application.Lead{}, persistence.ErrNotFound
	}
	return r.GetLead(ctx, lead.ID)
}

// DeleteLead removes one lead by id.
func (r *LeadRepository) DeleteLead(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
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

// StudentExists reports whether the id names a converted student.
func (r *LeadRepository) StudentExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM leads WHERE id = ? AND status = ?`,
		id, string(application.LeadStatusStudent)).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}
