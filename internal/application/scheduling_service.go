package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/training-crm/internal/grouping"
	"github.com/example/training-crm/internal/recurrence"
	"github.com/example/training-crm/internal/scheduler"
)

// SessionRepository captures the persistence interactions needed by the
// scheduling service.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	// CreateSessionsBatch persists all sessions in one transaction: either
	// every instance is durable or none is.
	CreateSessionsBatch(ctx context.Context, sessions []Session) ([]Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	UpdateSession(ctx context.Context, id string, patch SessionPatch) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByGroupID(ctx context.Context, groupID string) (int, error)
	// FindOverlapping returns active (non-cancelled) sessions intersecting
	// the half-open window for either party. excludeID may be empty.
	FindOverlapping(ctx context.Context, trainerID, studentID string, start, end time.Time, excludeID string) ([]Session, error)
}

// StudentDirectory verifies that a referenced student exists.
type StudentDirectory interface {
	StudentExists(ctx context.Context, id string) (bool, error)
}

// TrainerCatalog verifies that a referenced trainer exists and is active.
type TrainerCatalog interface {
	TrainerExists(ctx context.Context, id string) (bool, error)
}

// SchedulingService orchestrates validation, conflict detection and
// recurrence expansion for session operations.
type SchedulingService struct {
	sessions    SessionRepository
	students    StudentDirectory
	trainers    TrainerCatalog
	expander    *recurrence.Expander
	detector    *scheduler.Detector
	grouper     *grouping.Detector
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSchedulingService wires dependencies for session operations. A nil
// expander, detector or grouper falls back to the defaults; nil idGenerator
// and now fall back to empty ids and time.Now.
func NewSchedulingService(
	sessions SessionRepository,
	students StudentDirectory,
	trainers TrainerCatalog,
	expander *recurrence.Expander,
	detector *scheduler.Detector,
	grouper *grouping.Detector,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *SchedulingService {
	if expander == nil {
		expander = recurrence.NewExpander(0)
	}
	if detector == nil {
		detector = scheduler.NewDetector(scheduler.Config{})
	}
	if now == nil {
		now = time.Now
	}
	if grouper == nil {
		grouper = grouping.NewDetector(grouping.Config{}, now)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &SchedulingService{
		sessions:    sessions,
		students:    students,
		trainers:    trainers,
		expander:    expander,
		detector:    detector,
		grouper:     grouper,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateSingleSession validates and persists one session with no recurrence.
// Hard trainer conflicts block the booking with a ConflictError; soft
// conflicts are returned as warnings alongside the created session.
func (s *SchedulingService) CreateSingleSession(ctx context.Context, input SessionInput) (Session, []scheduler.Conflict, error) {
	vErr := &ValidationError{}
	validateSessionCore(input, vErr)
	if vErr.HasErrors() {
		return Session{}, nil, vErr
	}

	if err := s.ensurePartiesExist(ctx, input.TrainerID, input.StudentID); err != nil {
		return Session{}, nil, err
	}

	conflicts, suggestions, err := s.analyzeConflicts(ctx, input.TrainerID, input.StudentID, input.StartTime, input.EndTime, "")
	if err != nil {
		return Session{}, nil, err
	}
	if scheduler.HasHardTrainerConflict(conflicts) {
		return Session{}, nil, &ConflictError{Conflicts: conflicts, Suggestions: suggestions}
	}

	session := s.newSession(input)
	persisted, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		serviceLogger(ctx, s.logger, "scheduling", "create_single", "session_id", session.ID).
			ErrorContext(ctx, "failed to persist session", "error", err)
		return Session{}, nil, mapRepoError(err)
	}

	return persisted, conflicts, nil
}

// CreateRecurringSeries expands the rule, drops instances with hard trainer
// conflicts and persists the rest as one atomic batch sharing a freshly
// minted group id. Skipped instances are reported per occurrence; if every
// instance conflicts the whole request fails with the combined conflict list.
func (s *SchedulingService) CreateRecurringSeries(ctx context.Context, input SessionInput) (SeriesResult, error) {
	vErr := &ValidationError{}
	validateSessionCore(input, vErr)
	validateRecurrenceRule(input.Recurrence, vErr)
	if vErr.HasErrors() {
		return SeriesResult{}, vErr
	}

	if err := s.ensurePartiesExist(ctx, input.TrainerID, input.StudentID); err != nil {
		return SeriesResult{}, err
	}

	windows, err := s.expander.Expand(
		recurrence.Window{Start: input.StartTime, End: input.EndTime},
		input.Recurrence,
	)
	if err != nil {
		return SeriesResult{}, mapExpansionError(err)
	}

	groupID := s.idGenerator()
	result := SeriesResult{GroupID: groupID}
	var accepted []Session
	var allConflicts []scheduler.Conflict

	for _, w := range windows {
		conflicts, _, cErr := s.analyzeConflicts(ctx, input.TrainerID, input.StudentID, w.Start, w.End, "")
		if cErr != nil {
			return SeriesResult{}, cErr
		}
		if scheduler.HasHardTrainerConflict(conflicts) {
			result.Skipped = append(result.Skipped, SkippedInstance{
				StartTime: w.Start,
				EndTime:   w.End,
				Conflicts: conflicts,
			})
			allConflicts = append(allConflicts, conflicts...)
			continue
		}

		instance := s.newSession(input)
		instance.StartTime = w.Start
		instance.EndTime = w.End
		instance.RecurrenceGroupID = &groupID
		accepted = append(accepted, instance)
	}

	if len(accepted) == 0 {
		return SeriesResult{}, &ConflictError{Conflicts: allConflicts}
	}

	// The first instance anchors the group; the rest point back at it.
	accepted[0].IsRecurrenceParent = true
	parentID := accepted[0].ID
	for i := 1; i < len(accepted); i++ {
		accepted[i].ParentSessionID = &parentID
	}

	created, err := s.sessions.CreateSessionsBatch(ctx, accepted)
	if err != nil {
		// A failed batch may leave partial state behind on a crash; log
		// enough to reconcile by hand.
		serviceLogger(ctx, s.logger, "scheduling", "create_series",
			"group_id", groupID,
			"attempted", len(accepted),
		).ErrorContext(ctx, "failed to persist recurring series", "error", err)
		return SeriesResult{}, mapRepoError(err)
	}

	result.Created = created
	return result, nil
}

// CheckConflicts runs conflict detection for a candidate window without
// writing anything. A clear calendar yields an empty report, never an error.
func (s *SchedulingService) CheckConflicts(ctx context.Context, trainerID, studentID string, start, end time.Time, excludeID string) (ConflictReport, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(trainerID) == "" {
		vErr.add("trainer_id", "trainer is required")
	}
	if start.IsZero() || end.IsZero() {
		vErr.add("time", "start and end times are required")
	} else if !end.After(start) {
		vErr.add("time", "end time must be after start time")
	}
	if vErr.HasErrors() {
		return ConflictReport{}, vErr
	}

	conflicts, suggestions, err := s.analyzeConflicts(ctx, trainerID, studentID, start, end, excludeID)
	if err != nil {
		return ConflictReport{}, err
	}
	if len(conflicts) == 0 {
		return ConflictReport{}, nil
	}
	return ConflictReport{Conflicts: conflicts, Suggestions: suggestions}, nil
}

// GetSession fetches one session by id.
func (s *SchedulingService) GetSession(ctx context.Context, id string) (Session, error) {
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	return session, nil
}

// ListSessions enumerates sessions matching the filter, ordered by start
// time ascending.
func (s *SchedulingService) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	sessions, err := s.sessions.ListSessions(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}

	ordered := make([]Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})
	return ordered, nil
}

// UpdateSession applies a structured patch. Time changes re-run conflict
// detection excluding the session itself; the first time edit on a recurring
// instance records the original window and flips the modified flag so later
// group-wide operations do not clobber it.
func (s *SchedulingService) UpdateSession(ctx context.Context, id string, patch SessionPatch) (Session, error) {
	if patch.IsZero() {
		vErr := &ValidationError{}
		vErr.add("patch", "no fields to update")
		return Session{}, vErr
	}

	existing, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return Session{}, mapRepoError(err)
	}

	newStart := existing.StartTime
	if patch.StartTime != nil {
		newStart = *patch.StartTime
	}
	newEnd := existing.EndTime
	if patch.EndTime != nil {
		newEnd = *patch.EndTime
	}
	if !newEnd.After(newStart) {
		vErr := &ValidationError{}
		vErr.add("time", "end time must be after start time")
		return Session{}, vErr
	}

	if patch.Status != nil {
		if !existing.Status.CanTransitionTo(*patch.Status) {
			vErr := &ValidationError{}
			vErr.add("status", fmt.Sprintf("cannot move from %s to %s", existing.Status, *patch.Status))
			return Session{}, vErr
		}
	}

	timesChanged := !newStart.Equal(existing.StartTime) || !newEnd.Equal(existing.EndTime)
	if timesChanged {
		conflicts, suggestions, cErr := s.analyzeConflicts(ctx, existing.TrainerID, existing.StudentID, newStart, newEnd, id)
		if cErr != nil {
			return Session{}, cErr
		}
		if scheduler.HasHardTrainerConflict(conflicts) {
			return Session{}, &ConflictError{Conflicts: conflicts, Suggestions: suggestions}
		}

		if existing.RecurrenceGroupID != nil && !existing.IsModified {
			modified := true
			origStart := existing.StartTime
			origEnd := existing.EndTime
			patch.IsModified = &modified
			patch.OriginalStartTime = &origStart
			patch.OriginalEndTime = &origEnd
		}
	}

	updated, err := s.sessions.UpdateSession(ctx, id, patch)
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	return updated, nil
}

// UpdateSessionStatus validates and applies a status transition.
// adminOverride is the audited correction path that bypasses the state
// machine for terminal states.
func (s *SchedulingService) UpdateSessionStatus(ctx context.Context, id string, next Status, adminOverride bool) (Session, error) {
	if _, ok := ParseStatus(string(next)); !ok {
		vErr := &ValidationError{}
		vErr.add("status", "invalid status value")
		return Session{}, vErr
	}

	existing, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return Session{}, mapRepoError(err)
	}

	if !existing.Status.CanTransitionTo(next) {
		if !adminOverride {
			vErr := &ValidationError{}
			vErr.add("status", fmt.Sprintf("cannot move from %s to %s", existing.Status, next))
			return Session{}, vErr
		}
		serviceLogger(ctx, s.logger, "scheduling", "update_status", "session_id", id).
			WarnContext(ctx, "administrative status override",
				"from", existing.Status, "to", next)
	}

	patch := SessionPatch{Status: &next}
	updated, err := s.sessions.UpdateSession(ctx, id, patch)
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	return updated, nil
}

// DeleteSession removes one session by id.
func (s *SchedulingService) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// DeleteRecurringGroup removes every session sharing the group id and
// returns the count. Zero matches means the group does not exist.
func (s *SchedulingService) DeleteRecurringGroup(ctx context.Context, groupID string) (int, error) {
	if strings.TrimSpace(groupID) == "" {
		return 0, ErrGroupNotFound
	}
	count, err := s.sessions.DeleteSessionsByGroupID(ctx, groupID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	if count == 0 {
		return 0, ErrGroupNotFound
	}
	serviceLogger(ctx, s.logger, "scheduling", "delete_group", "group_id", groupID).
		InfoContext(ctx, "recurring group deleted", "count", count)
	return count, nil
}

// GroupedSessions computes the inferred-recurrence report over stored
// sessions. Derived and best-effort: never consulted for booking decisions.
func (s *SchedulingService) GroupedSessions(ctx context.Context) (grouping.Result, error) {
	sessions, err := s.sessions.ListSessions(ctx, SessionFilter{})
	if err != nil {
		return grouping.Result{}, mapRepoError(err)
	}

	views := make([]grouping.Session, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, grouping.Session{
			ID:        session.ID,
			TrainerID: session.TrainerID,
			StudentID: session.StudentID,
			Location:  session.Location,
			Start:     session.StartTime,
			End:       session.EndTime,
			Status:    string(session.Status),
		})
	}
	return s.grouper.GroupSessions(views), nil
}

// analyzeConflicts loads the day's sessions for either party and runs the
// detector; suggestions are computed only when conflicts exist.
func (s *SchedulingService) analyzeConflicts(ctx context.Context, trainerID, studentID string, start, end time.Time, excludeID string) ([]scheduler.Conflict, []scheduler.Slot, error) {
	// Fetch the whole day so the buffer zone and the suggestion ladder are
	// both covered by a single read.
	y, m, d := start.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	if end.After(dayEnd) {
		dayEnd = end.AddDate(0, 0, 1)
	}

	existing, err := s.sessions.FindOverlapping(ctx, trainerID, studentID, dayStart, dayEnd, excludeID)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	views := make([]scheduler.Session, 0, len(existing))
	for _, session := range existing {
		views = append(views, scheduler.Session{
			ID:        session.ID,
			TrainerID: session.TrainerID,
			StudentID: session.StudentID,
			Start:     session.StartTime,
			End:       session.EndTime,
		})
	}

	candidate := scheduler.Session{
		TrainerID: trainerID,
		StudentID: studentID,
		Start:     start,
		End:       end,
	}

	conflicts := s.detector.FindConflicts(views, candidate, excludeID)
	if len(conflicts) == 0 {
		return nil, nil, nil
	}
	return conflicts, s.detector.SuggestSlots(views, candidate), nil
}

func (s *SchedulingService) ensurePartiesExist(ctx context.Context, trainerID, studentID string) error {
	vErr := &ValidationError{}
	if s.trainers != nil {
		exists, err := s.trainers.TrainerExists(ctx, trainerID)
		if err != nil {
			return mapRepoError(err)
		}
		if !exists {
			vErr.add("trainer_id", "trainer does not exist")
		}
	}
	if s.students != nil {
		exists, err := s.students.StudentExists(ctx, studentID)
		if err != nil {
			return mapRepoError(err)
		}
		if !exists {
			vErr.add("student_id", "student does not exist")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// newSession materializes a session from validated input with a fresh id and
// timestamps. Recurrence linkage is filled in by the series path.
func (s *SchedulingService) newSession(input SessionInput) Session {
	now := s.now()
	status := input.Status
	if status == "" {
		status = StatusScheduled
	}
	return Session{
		ID:         s.idGenerator(),
		TrainerID:  input.TrainerID,
		StudentID:  input.StudentID,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Location:   strings.TrimSpace(input.Location),
		Service:    strings.TrimSpace(input.Service),
		Value:      input.Value,
		Notes:      input.Notes,
		Status:     status,
		Source:     input.Source,
		Recurrence: input.Recurrence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func validateSessionCore(input SessionInput, vErr *ValidationError) {
	if strings.TrimSpace(input.TrainerID) == "" {
		vErr.add("trainer_id", "trainer is required")
	}
	if strings.TrimSpace(input.StudentID) == "" {
		vErr.add("student_id", "student is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		vErr.add("location", "location is required")
	}
	if strings.TrimSpace(input.Service) == "" {
		vErr.add("service", "service is required")
	}
	if input.Value < 0 {
		vErr.add("value", "value must not be negative")
	}
	if input.StartTime.IsZero() {
		vErr.add("start_time", "start time is required")
	}
	if input.EndTime.IsZero() {
		vErr.add("end_time", "end time is required")
	}
	if !input.StartTime.IsZero() && !input.EndTime.IsZero() && !input.EndTime.After(input.StartTime) {
		vErr.add("time", "end time must be after start time")
	}
	if input.Source != "" {
		if _, ok := ParseSource(string(input.Source)); !ok {
			vErr.add("source", "unknown source")
		}
	}
	if input.Status != "" {
		if _, ok := ParseStatus(string(input.Status)); !ok {
			vErr.add("status", "invalid status value")
		}
	}
}

func validateRecurrenceRule(rule recurrence.Rule, vErr *ValidationError) {
	if !rule.IsRecurring() {
		vErr.add("recurrence_type", "recurrence type must be daily, weekly or monthly")
		return
	}
	if rule.Interval < 0 {
		vErr.add("recurrence_interval", "interval must be positive")
	}
	if rule.Type == recurrence.TypeWeekly && len(rule.WeekDays) == 0 {
		vErr.add("recurrence_week_days", "weekly recurrence requires at least one weekday")
	}
	switch rule.EndType {
	case recurrence.EndTypeCount:
		if rule.EndCount < 1 {
			vErr.add("recurrence_end_count", "end count must be positive")
		}
	case recurrence.EndTypeDate:
		if rule.EndDate.IsZero() {
			vErr.add("recurrence_end_date", "end date is required")
		}
	default:
		vErr.add("recurrence_end_type", "end condition must be count or date")
	}
}

// mapExpansionError converts expander sentinels into caller-facing errors.
func mapExpansionError(err error) error {
	switch err {
	case nil:
		return nil
	case recurrence.ErrNoOccurrences:
		return ErrNoInstancesGenerated
	default:
		vErr := &ValidationError{}
		vErr.add("recurrence", err.Error())
		return vErr
	}
}
