package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// LeadRepository captures the persistence interactions needed by the lead
// service.
type LeadRepository interface {
	CreateLead(ctx context.Context, lead Lead) (Lead, error)
	GetLead(ctx context.Context, id string) (Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]Lead, error)
	UpdateLead(ctx context.Context, lead Lead) (Lead, error)
	DeleteLead(ctx context.Context, id string) error
}

// LeadFilter narrows lead listings.
type LeadFilter struct {
	Status LeadStatus
	Source Source
	Search string
}

// LeadService manages sales contacts and their conversion into students.
type LeadService struct {
	leads       LeadRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLeadService wires dependencies for lead operations.
func NewLeadService(leads LeadRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LeadService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LeadService{leads: leads, idGenerator: idGenerator, now: now, logger: logger}
}

// CreateLead validates and persists a new lead.
func (s *LeadService) CreateLead(ctx context.Context, input LeadInput) (Lead, error) {
	vErr := &ValidationError{}
	validateLeadInput(input, vErr)
	if vErr.HasErrors() {
		return Lead{}, vErr
	}

	now := s.now()
	status := input.Status
	if status == "" {
		status = LeadStatusLead
	}
	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = now
	}
	lead := Lead{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Status:    status,
		Source:    input.Source,
		EntryDate: entryDate,
		Notes:     input.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.leads.CreateLead(ctx, lead)
	if err != nil {
		serviceLogger(ctx, s.logger, "leads", "create", "lead_id", lead.ID).
			ErrorContext(ctx, "failed to persist lead", "error", err)
		return Lead{}, mapRepoError(err)
	}
	return created, nil
}

// GetLead fetches one lead by id.
func (s *LeadService) GetLead(ctx context.Context, id string) (Lead, error) {
	lead, err := s.leads.GetLead(ctx, id)
	if err != nil {
		return Lead{}, mapRepoError(err)
	}
	return lead, nil
}

// ListLeads enumerates leads matching the filter.
func (s *LeadService) ListLeads(ctx context.Context, filter LeadFilter) ([]Lead, error) {
	leads, err := s.leads.ListLeads(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return leads, nil
}

// UpdateLead validates and applies a full update to an existing lead.
func (s *LeadService) UpdateLead(ctx context.Context, id string, input LeadInput) (Lead, error) {
	vErr := &ValidationError{}
	validateLeadInput(input, vErr)
	if vErr.HasErrors() {
		return Lead{}, vErr
	}

	existing, err := s.leads.GetLead(ctx, id)
	if err != nil {
		return Lead{}, mapRepoError(err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Email = strings.TrimSpace(input.Email)
	existing.Phone = strings.TrimSpace(input.Phone)
	if input.Status != "" {
		existing.Status = input.Status
	}
	existing.Source = input.Source
	if !input.EntryDate.IsZero() {
		existing.EntryDate = input.EntryDate
	}
	existing.Notes = input.Notes
	existing.UpdatedAt = s.now()

	updated, err := s.leads.UpdateLead(ctx, existing)
	if err != nil {
		return Lead{}, mapRepoError(err)
	}
	return updated, nil
}

// ConvertLead promotes a lead to a bookable student.
func (s *LeadService) ConvertLead(ctx context.Context, id string) (Lead, error) {
	existing, err := s.leads.GetLead(ctx, id)
	if err != nil {
		return Lead{}, mapRepoError(err)
	}
	if existing.Status == LeadStatusStudent {
		return existing, nil
	}

	existing.Status = LeadStatusStudent
	existing.UpdatedAt = s.now()
	updated, err := s.leads.UpdateLead(ctx, existing)
	if err != nil {
		return Lead{}, mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "leads", "convert", "lead_id", id).
		InfoContext(ctx, "lead converted to student")
	return updated, nil
}

// DeleteLead removes one lead by id.
func (s *LeadService) DeleteLead(ctx context.Context, id string) error {
	if err := s.leads.DeleteLead(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// StudentExists reports whether the id names a converted student. Leads that
// have not converted are not bookable.
func (s *LeadService) StudentExists(ctx context.Context, id string) (bool, error) {
	lead, err := s.leads.GetLead(ctx, id)
	if err != nil {
		mapped := mapRepoError(err)
		if mapped == ErrNotFound {
			return false, nil
		}
		return false, mapped
	}
	return lead.Status == LeadStatusStudent, nil
}

func validateLeadInput(input LeadInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Email) == "" && strings.TrimSpace(input.Phone) == "" {
		vErr.add("contact", "email or phone is required")
	}
	if email := strings.TrimSpace(input.Email); email != "" && !strings.Contains(email, "@") {
		vErr.add("email", "email is malformed")
	}
	if input.Status != "" {
		if _, ok := ParseLeadStatus(string(input.Status)); !ok {
			vErr.add("status", "unknown lead status")
		}
	}
	if input.Source != "" {
		if _, ok := ParseSource(string(input.Source)); !ok {
			vErr.add("source", "unknown source")
		}
	}
}
