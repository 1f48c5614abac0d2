package application

import (
	"time"

	"github.com/example/training-crm/internal/recurrence"
	"github.com/example/training-crm/internal/scheduler"
)

// Source identifies the business line a record originated from.
type Source string

const (
	// SourceFavale is the Favale personal-training line.
	SourceFavale Source = "favale"
	// SourcePink is the Pink studio line.
	SourcePink Source = "pink"
	// SourceFavalePink is the combined line.
	SourceFavalePink Source = "favalepink"
)

// ParseSource normalizes a caller supplied source value.
func ParseSource(value string) (Source, bool) {
	switch Source(value) {
	case SourceFavale, SourcePink, SourceFavalePink:
		return Source(value), true
	default:
		return "", false
	}
}

// Session is a single bookable time block between one trainer and one
// student. Instances created from a recurrence rule carry a shared group id
// and a snapshot of the rule that produced them.
type Session struct {
	ID        string
	TrainerID string
	StudentID string
	StartTime time.Time
	EndTime   time.Time
	Location  string
	Service   string
	// Value is a monetary amount in integer minor units.
	Value  int64
	Notes  string
	Status Status
	Source Source

	// Recurrence linkage. GroupID is shared by every instance of one
	// series; the first-created instance is the parent. ParentSessionID is
	// informational only, not an ownership relation.
	RecurrenceGroupID  *string
	IsRecurrenceParent bool
	ParentSessionID    *string
	Recurrence         recurrence.Rule

	// Modified-occurrence tracking: set the first time a group member's
	// times are edited away from the generated schedule.
	IsModified        bool
	OriginalStartTime *time.Time
	OriginalEndTime   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionInput captures caller provided fields for session creation.
type SessionInput struct {
	TrainerID  string
	StudentID  string
	StartTime  time.Time
	EndTime    time.Time
	Location   string
	Service    string
	Value      int64
	Notes      string
	Status     Status
	Source     Source
	Recurrence recurrence.Rule
}

// SessionPatch is a structured partial update. Nil fields are left untouched;
// the storage layer applies it as a parameterized update, never by string
// building.
type SessionPatch struct {
	StartTime *time.Time
	EndTime   *time.Time
	Location  *string
	Service   *string
	Value     *int64
	Notes     *string
	Status    *Status

	// Set by the service when a time edit diverges a recurring instance
	// from its generated schedule.
	IsModified        *bool
	OriginalStartTime *time.Time
	OriginalEndTime   *time.Time
}

// IsZero reports whether the patch carries no changes.
func (p SessionPatch) IsZero() bool {
	return p.StartTime == nil && p.EndTime == nil && p.Location == nil &&
		p.Service == nil && p.Value == nil && p.Notes == nil && p.Status == nil &&
		p.IsModified == nil && p.OriginalStartTime == nil && p.OriginalEndTime == nil
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	TrainerID         string
	StudentID         string
	RecurrenceGroupID string
	From              *time.Time
	To                *time.Time
	Status            *Status
}

// SkippedInstance records one generated occurrence that was not persisted
// because of conflicts.
type SkippedInstance struct {
	StartTime time.Time
	EndTime   time.Time
	Conflicts []scheduler.Conflict
}

// SeriesResult is the outcome of creating a recurring series: accepted
// instances persisted as one batch, conflicting ones reported per instance.
type SeriesResult struct {
	GroupID string
	Created []Session
	Skipped []SkippedInstance
}

// ConflictReport is the outcome of a standalone conflict check.
type ConflictReport struct {
	Conflicts   []scheduler.Conflict
	Suggestions []scheduler.Slot
}

// LeadStatus tracks a lead's progression in the funnel.
type LeadStatus string

const (
	// LeadStatusLead is the initial state for a new contact.
	LeadStatusLead LeadStatus = "lead"
	// LeadStatusStudent marks a converted, bookable student.
	LeadStatusStudent LeadStatus = "student"
)

// ParseLeadStatus normalizes a lead status, accepting the legacy Portuguese
// values.
func ParseLeadStatus(value string) (LeadStatus, bool) {
	switch value {
	case "lead", "Lead":
		return LeadStatusLead, true
	case "student", "aluno", "Aluno":
		return LeadStatusStudent, true
	default:
		return "", false
	}
}

// Lead is a sales contact; converted leads become bookable students.
type Lead struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Status    LeadStatus
	Source    Source
	EntryDate time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeadInput captures caller provided lead fields.
type LeadInput struct {
	Name      string
	Email     string
	Phone     string
	Status    LeadStatus
	Source    Source
	EntryDate time.Time
	Notes     string
}

// Trainer is a catalog entry for a coach who can be booked.
type Trainer struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Specialties []string
	Source      Source
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrainerInput captures caller provided trainer fields.
type TrainerInput struct {
	Name        string
	Email       string
	Phone       string
	Specialties []string
	Source      Source
	Active      bool
}

// TaskStatus tracks a CRM task's lifecycle.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// ParseTaskStatus normalizes a task status value.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	switch TaskStatus(value) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return TaskStatus(value), true
	default:
		return "", false
	}
}

// Task is a follow-up item assigned to a trainer, optionally tied to a lead.
type Task struct {
	ID            string
	Title         string
	Description   string
	AssigneeID    string
	DueDate       *time.Time
	Status        TaskStatus
	RelatedLeadID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskInput captures caller provided task fields.
type TaskInput struct {
	Title         string
	Description   string
	AssigneeID    string
	DueDate       *time.Time
	Status        TaskStatus
	RelatedLeadID *string
}

// TaskPatch is a structured partial update for tasks.
type TaskPatch struct {
	Title         *string
	Description   *string
	AssigneeID    *string
	DueDate       *time.Time
	Status        *TaskStatus
	RelatedLeadID *string
}
