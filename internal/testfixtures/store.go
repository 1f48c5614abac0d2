package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/persistence"
)

// Store is an in-memory implementation of the application repository
// interfaces. It mirrors the semantics of the SQLite layer closely enough
// for service and handler tests, including sentinel errors.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]application.Session
	leads    map[string]application.Lead
	trainers map[string]application.Trainer
	tasks    map[string]application.Task
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]application.Session),
		leads:    make(map[string]application.Lead),
		trainers: make(map[string]application.Trainer),
		tasks:    make(map[string]application.Task),
	}
}

// SeedSessions inserts sessions directly, bypassing validation.
func (s *Store) SeedSessions(sessions ...application.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range sessions {
		s.sessions[session.ID] = session
	}
}

// SeedLeads inserts leads directly.
func (s *Store) SeedLeads(leads ...application.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lead := range leads {
		s.leads[lead.ID] = lead
	}
}

// SeedTrainers inserts trainers directly.
func (s *Store) SeedTrainers(trainers ...application.Trainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, trainer := range trainers {
		s.trainers[trainer.ID] = trainer
	}
}

// SeedTasks inserts tasks directly.
func (s *Store) SeedTasks(tasks ...application.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range tasks {
		s.tasks[task.ID] = task
	}
}

// ----------------------------- Sessions -----------------------------------

// CreateSession stores one session.
func (s *Store) CreateSession(_ context.Context, session application.Session) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return application.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.ID] = session
	return session, nil
}

// CreateSessionsBatch stores all sessions or none.
func (s *Store) CreateSessionsBatch(_ context.Context, sessions []application.Session) ([]application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range sessions {
		if _, exists := s.sessions[session.ID]; exists {
			return nil, persistence.ErrDuplicate
		}
	}
	for _, session := range sessions {
		s.sessions[session.ID] = session
	}
	return append([]application.Session(nil), sessions...), nil
}

// GetSession fetches one session by id.
func (s *Store) GetSession(_ context.Context, id string) (application.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return application.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// ListSessions enumerates sessions matching the filter, ordered by start time.
func (s *Store) ListSessions(_ context.Context, filter application.SessionFilter) ([]application.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []application.Session
	for _, session := range s.sessions {
		if filter.TrainerID != "" && session.TrainerID != filter.TrainerID {
			continue
		}
		if filter.StudentID != "" && session.StudentID != filter.StudentID {
			continue
		}
		if filter.RecurrenceGroupID != "" {
			if session.RecurrenceGroupID == nil || *session.RecurrenceGroupID != filter.RecurrenceGroupID {
				continue
			}
		}
		if filter.Status != nil && session.Status != *filter.Status {
			continue
		}
		if filter.From != nil && session.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !session.StartTime.Before(*filter.To) {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// UpdateSession applies a patch to a stored session.
func (s *Store) UpdateSession(_ context.Context, id string, patch application.SessionPatch) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return application.Session{}, persistence.ErrNotFound
	}
	if patch.StartTime != nil {
		session.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		session.EndTime = *patch.EndTime
	}
	if patch.Location != nil {
		session.Location = *patch.Location
	}
	if patch.Service != nil {
		session.Service = *patch.Service
	}
	if patch.Value != nil {
		session.Value = *patch.Value
	}
	if patch.Notes != nil {
		session.Notes = *patch.Notes
	}
	if patch.Status != nil {
		session.Status = *patch.Status
	}
	if patch.IsModified != nil {
		session.IsModified = *patch.IsModified
	}
	if patch.OriginalStartTime != nil {
		t := *patch.OriginalStartTime
		session.OriginalStartTime = &t
	}
	if patch.OriginalEndTime != nil {
		t := *patch.OriginalEndTime
		session.OriginalEndTime = &t
	}
	if !session.EndTime.After(session.StartTime) {
		return application.Session{}, persistence.ErrConstraintViolation
	}
	s.sessions[id] = session
	return session, nil
}

// DeleteSession removes one session by id.
func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// DeleteSessionsByGroupID removes every session in the group.
func (s *Store) DeleteSessionsByGroupID(_ context.Context, groupID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, session := range s.sessions {
		if session.RecurrenceGroupID != nil && *session.RecurrenceGroupID == groupID {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// FindOverlapping returns active sessions intersecting the half-open window
// for either party.
func (s *Store) FindOverlapping(_ context.Context, trainerID, studentID string, start, end time.Time, excludeID string) ([]application.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []application.Session
	for _, session := range s.sessions {
		if session.ID == excludeID {
			continue
		}
		if session.Status == application.StatusCancelled {
			continue
		}
		if session.TrainerID != trainerID && (studentID == "" || session.StudentID != studentID) {
			continue
		}
		if session.StartTime.Before(end) && start.Before(session.EndTime) {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// ------------------------------ Leads -------------------------------------

// CreateLead stores one lead.
func (s *Store) CreateLead(_ context.Context, lead application.Lead) (application.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.leads[lead.ID]; exists {
		return application.Lead{}, persistence.ErrDuplicate
	}
	s.leads[lead.ID] = lead
	return lead, nil
}

// GetLead fetches one lead by id.
func (s *Store) GetLead(_ context.Context, id string) (application.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return application.Lead{}, persistence.ErrNotFound
	}
	return lead, nil
}

// ListLeads enumerates leads matching the filter, ordered by entry date.
func (s *Store) ListLeads(_ context.Context, filter application.LeadFilter) ([]application.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []application.Lead
	for _, lead := range s.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.Source != "" && lead.Source != filter.Source {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(lead.Name), needle) &&
				!strings.Contains(strings.ToLower(lead.Email), needle) {
				continue
			}
		}
		out = append(out, lead)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].EntryDate.Before(out[j].EntryDate)
	})
	return out, nil
}

// UpdateLead replaces a stored lead.
func (s *Store) UpdateLead(_ context.Context, lead application.Lead) (application.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; !ok {
		return application.Lead{}, persistence.ErrNotFound
	}
	s.leads[lead.ID] = lead
	return lead, nil
}

// DeleteLead removes one lead by id.
func (s *Store) DeleteLead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

// ----------------------------- Trainers -----------------------------------

// CreateTrainer stores one trainer.
func (s *Store) CreateTrainer(_ context.Context, trainer application.Trainer) (application.Trainer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trainers[trainer.ID]; exists {
		return application.Trainer{}, persistence.ErrDuplicate
	}
	s.trainers[trainer.ID] = trainer
	return trainer, nil
}

// GetTrainer fetches one trainer by id.
func (s *Store) GetTrainer(_ context.Context, id string) (application.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trainer, ok := s.trainers[id]
	if !ok {
		return application.Trainer{}, persistence.ErrNotFound
	}
	return trainer, nil
}

// ListTrainers enumerates trainers, optionally active only, ordered by name.
func (s *Store) ListTrainers(_ context.Context, activeOnly bool) ([]application.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []application.Trainer
	for _, trainer := range s.trainers {
		if activeOnly && !trainer.Active {
			continue
		}
		out = append(out, trainer)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// UpdateTrainer replaces a stored trainer.
func (s *Store) UpdateTrainer(_ context.Context, trainer application.Trainer) (application.Trainer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trainers[trainer.ID]; !ok {
		return application.Trainer{}, persistence.ErrNotFound
	}
	s.trainers[trainer.ID] = trainer
	return trainer, nil
}

// DeleteTrainer removes one trainer by id.
func (s *Store) DeleteTrainer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trainers[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.trainers, id)
	return nil
}

// ------------------------------- Tasks ------------------------------------

// CreateTask stores one task.
func (s *Store) CreateTask(_ context.Context, task application.Task) (application.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[task.ID]; exists {
		return application.Task{}, persistence.ErrDuplicate
	}
	s.tasks[task.ID] = task
	return task, nil
}

// GetTask fetches one task by id.
func (s *Store) GetTask(_ context.Context, id string) (application.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return application.Task{}, persistence.ErrNotFound
	}
	return task, nil
}

// ListTasks enumerates tasks matching the filter, ordered by creation time.
func (s *Store) ListTasks(_ context.Context, filter application.TaskFilter) ([]application.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []application.Task
	for _, task := range s.tasks {
		if filter.AssigneeID != "" && task.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.DueBefore != nil {
			if task.DueDate == nil || !task.DueDate.Before(*filter.DueBefore) {
				continue
			}
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateTask applies a patch to a stored task.
func (s *Store) UpdateTask(_ context.Context, id string, patch application.TaskPatch) (application.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return application.Task{}, persistence.ErrNotFound
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.AssigneeID != nil {
		task.AssigneeID = *patch.AssigneeID
	}
	if patch.DueDate != nil {
		t := *patch.DueDate
		task.DueDate = &t
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.RelatedLeadID != nil {
		lead := *patch.RelatedLeadID
		task.RelatedLeadID = &lead
	}
	s.tasks[id] = task
	return task, nil
}

// DeleteTask removes one task by id.
func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// ---------------------------- Directories ---------------------------------

// StudentExists reports whether the id names a converted student.
func (s *Store) StudentExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return false, nil
	}
	return lead.Status == application.LeadStatusStudent, nil
}

// TrainerExists reports whether the id names an active trainer.
func (s *Store) TrainerExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trainer, ok := s.trainers[id]
	if !ok {
		return false, nil
	}
	return trainer.Active, nil
}
