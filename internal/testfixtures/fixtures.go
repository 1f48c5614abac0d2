// Package testfixtures provides deterministic builders and in-memory
// repositories shared by service, handler and persistence tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/recurrence"
)

var (
	sessionCounter uint64
	leadCounter    uint64
	trainerCounter uint64
	taskCounter    uint64
)

var referenceTime = time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday so weekday arithmetic in tests stays readable.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic training session record.
type SessionFixture struct {
	ID                string
	TrainerID         string
	StudentID         string
	StartTime         time.Time
	EndTime           time.Time
	Location          string
	Service           string
	Value             int64
	Notes             string
	Status            application.Status
	Source            application.Source
	RecurrenceGroupID *string
	Recurrence        recurrence.Rule
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides. Successive fixtures land on successive days at the same hour.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	start := referenceTime.AddDate(0, 0, int(idx-1))
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		TrainerID: "trainer-001",
		StudentID: "student-001",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Location:  "Studio A",
		Service:   "personal-training",
		Value:     15000,
		Status:    application.StatusScheduled,
		Source:    application.SourceFavale,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) { f.ID = id }
}

// WithSessionTrainer sets the trainer ID.
func WithSessionTrainer(id string) SessionOption {
	return func(f *SessionFixture) { f.TrainerID = id }
}

// WithSessionStudent sets the student ID.
func WithSessionStudent(id string) SessionOption {
	return func(f *SessionFixture) { f.StudentID = id }
}

// WithSessionTimes sets the start and end times.
func WithSessionTimes(start, end time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithSessionLocation sets the location.
func WithSessionLocation(location string) SessionOption {
	return func(f *SessionFixture) { f.Location = location }
}

// WithSessionService sets the service name.
func WithSessionService(service string) SessionOption {
	return func(f *SessionFixture) { f.Service = service }
}

// WithSessionValue sets the monetary value in minor units.
func WithSessionValue(value int64) SessionOption {
	return func(f *SessionFixture) { f.Value = value }
}

// WithSessionStatus sets the lifecycle status.
func WithSessionStatus(status application.Status) SessionOption {
	return func(f *SessionFixture) { f.Status = status }
}

// WithSessionSource sets the business line.
func WithSessionSource(source application.Source) SessionOption {
	return func(f *SessionFixture) { f.Source = source }
}

// WithSessionGroup sets the recurrence group ID.
func WithSessionGroup(groupID string) SessionOption {
	return func(f *SessionFixture) {
		id := groupID
		f.RecurrenceGroupID = &id
	}
}

// WithSessionRecurrence sets the recurrence rule snapshot.
func WithSessionRecurrence(rule recurrence.Rule) SessionOption {
	return func(f *SessionFixture) { f.Recurrence = rule }
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	var groupID *string
	if f.RecurrenceGroupID != nil {
		id := *f.RecurrenceGroupID
		groupID = &id
	}
	return application.Session{
		ID:                f.ID,
		TrainerID:         f.TrainerID,
		StudentID:         f.StudentID,
		StartTime:         f.StartTime,
		EndTime:           f.EndTime,
		Location:          f.Location,
		Service:           f.Service,
		Value:             f.Value,
		Notes:             f.Notes,
		Status:            f.Status,
		Source:            f.Source,
		RecurrenceGroupID: groupID,
		Recurrence:        f.Recurrence,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
}

// Input returns the fixture as an application.SessionInput.
func (f SessionFixture) Input() application.SessionInput {
	return application.SessionInput{
		TrainerID:  f.TrainerID,
		StudentID:  f.StudentID,
		StartTime:  f.StartTime,
		EndTime:    f.EndTime,
		Location:   f.Location,
		Service:    f.Service,
		Value:      f.Value,
		Notes:      f.Notes,
		Status:     f.Status,
		Source:     f.Source,
		Recurrence: f.Recurrence,
	}
}

// ----------------------------- Lead fixtures ------------------------------

// LeadFixture represents a deterministic lead record.
type LeadFixture struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Status    application.LeadStatus
	Source    application.Source
	EntryDate time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeadOption configures the generated lead fixture.
type LeadOption func(*LeadFixture)

// NewLeadFixture returns a deterministic lead fixture with optional overrides.
func NewLeadFixture(opts ...LeadOption) LeadFixture {
	idx := atomic.AddUint64(&leadCounter, 1)
	id := fmt.Sprintf("lead-%03d", idx)
	fixture := LeadFixture{
		ID:        id,
		Name:      fmt.Sprintf("Lead %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Phone:     fmt.Sprintf("+55119%08d", idx),
		Status:    application.LeadStatusLead,
		Source:    application.SourceFavale,
		EntryDate: referenceTime,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithLeadID overrides the generated lead ID.
func WithLeadID(id string) LeadOption {
	return func(f *LeadFixture) { f.ID = id }
}

// WithLeadName sets the name.
func WithLeadName(name string) LeadOption {
	return func(f *LeadFixture) { f.Name = name }
}

// WithLeadStatus sets the funnel status.
func WithLeadStatus(status application.LeadStatus) LeadOption {
	return func(f *LeadFixture) { f.Status = status }
}

// WithLeadSource sets the business line.
func WithLeadSource(source application.Source) LeadOption {
	return func(f *LeadFixture) { f.Source = source }
}

// AsStudent marks the lead as already converted.
func AsStudent() LeadOption {
	return func(f *LeadFixture) { f.Status = application.LeadStatusStudent }
}

// Application returns the fixture as an application.Lead value.
func (f LeadFixture) Application() application.Lead {
	return application.Lead{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		Status:    f.Status,
		Source:    f.Source,
		EntryDate: f.EntryDate,
		Notes:     f.Notes,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.LeadInput.
func (f LeadFixture) Input() application.LeadInput {
	return application.LeadInput{
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		Status:    f.Status,
		Source:    f.Source,
		EntryDate: f.EntryDate,
		Notes:     f.Notes,
	}
}

// ---------------------------- Trainer fixtures ----------------------------

// TrainerFixture represents a deterministic trainer record.
type TrainerFixture struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Specialties []string
	Source      application.Source
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrainerOption configures the generated trainer fixture.
type TrainerOption func(*TrainerFixture)

// NewTrainerFixture returns a deterministic trainer fixture with optional
// overrides.
func NewTrainerFixture(opts ...TrainerOption) TrainerFixture {
	idx := atomic.AddUint64(&trainerCounter, 1)
	id := fmt.Sprintf("trainer-%03d", idx)
	fixture := TrainerFixture{
		ID:          id,
		Name:        fmt.Sprintf("Trainer %03d", idx),
		Email:       fmt.Sprintf("%s@example.com", id),
		Specialties: []string{"strength"},
		Source:      application.SourceFavale,
		Active:      true,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTrainerID overrides the generated trainer ID.
func WithTrainerID(id string) TrainerOption {
	return func(f *TrainerFixture) { f.ID = id }
}

// WithTrainerActive sets the active flag.
func WithTrainerActive(active bool) TrainerOption {
	return func(f *TrainerFixture) { f.Active = active }
}

// WithTrainerSpecialties sets the specialties list.
func WithTrainerSpecialties(specialties ...string) TrainerOption {
	return func(f *TrainerFixture) {
		f.Specialties = append([]string(nil), specialties...)
	}
}

// Application returns the fixture as an application.Trainer value.
func (f TrainerFixture) Application() application.Trainer {
	return application.Trainer{
		ID:          f.ID,
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		Specialties: append([]string(nil), f.Specialties...),
		Source:      f.Source,
		Active:      f.Active,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the fixture as an application.TrainerInput.
func (f TrainerFixture) Input() application.TrainerInput {
	return application.TrainerInput{
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		Specialties: append([]string(nil), f.Specialties...),
		Source:      f.Source,
		Active:      f.Active,
	}
}

// ----------------------------- Task fixtures ------------------------------

// TaskFixture represents a deterministic task record.
type TaskFixture struct {
	ID            string
	Title         string
	Description   string
	AssigneeID    string
	DueDate       *time.Time
	Status        application.TaskStatus
	RelatedLeadID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskOption configures the generated task fixture.
type TaskOption func(*TaskFixture)

// NewTaskFixture returns a deterministic task fixture with optional overrides.
func NewTaskFixture(opts ...TaskOption) TaskFixture {
	idx := atomic.AddUint64(&taskCounter, 1)
	fixture := TaskFixture{
		ID:         fmt.Sprintf("task-%03d", idx),
		Title:      fmt.Sprintf("Task %03d", idx),
		AssigneeID: "trainer-001",
		Status:     application.TaskStatusPending,
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTaskID overrides the generated task ID.
func WithTaskID(id string) TaskOption {
	return func(f *TaskFixture) { f.ID = id }
}

// WithTaskAssignee sets the assignee.
func WithTaskAssignee(id string) TaskOption {
	return func(f *TaskFixture) { f.AssigneeID = id }
}

// WithTaskStatus sets the lifecycle status.
func WithTaskStatus(status application.TaskStatus) TaskOption {
	return func(f *TaskFixture) { f.Status = status }
}

// WithTaskDueDate sets the due date.
func WithTaskDueDate(t time.Time) TaskOption {
	return func(f *TaskFixture) {
		due := t
		f.DueDate = &due
	}
}

// WithTaskLead ties the task to a lead.
func WithTaskLead(leadID string) TaskOption {
	return func(f *TaskFixture) {
		id := leadID
		f.RelatedLeadID = &id
	}
}

// Application returns the fixture as an application.Task value.
func (f TaskFixture) Application() application.Task {
	var due *time.Time
	if f.DueDate != nil {
		t := *f.DueDate
		due = &t
	}
	var lead *string
	if f.RelatedLeadID != nil {
		id := *f.RelatedLeadID
		lead = &id
	}
	return application.Task{
		ID:            f.ID,
		Title:         f.Title,
		Description:   f.Description,
		AssigneeID:    f.AssigneeID,
		DueDate:       due,
		Status:        f.Status,
		RelatedLeadID: lead,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input returns the fixture as an application.TaskInput.
func (f TaskFixture) Input() application.TaskInput {
	return application.TaskInput{
		Title:         f.Title,
		Description:   f.Description,
		AssigneeID:    f.AssigneeID,
		DueDate:       f.DueDate,
		Status:        f.Status,
		RelatedLeadID: f.RelatedLeadID,
	}
}
