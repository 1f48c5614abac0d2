package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/persistence"
	"github.com/example/training-crm/internal/recurrence"
)

// Times are stored as second precision RFC 3339 UTC strings so that string
// comparison in SQL matches chronological order.
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", value, err)
	}
	return t, nil
}

func parseTimePtr(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// SessionRepository persists training sessions.
type SessionRepository struct {
	pool *Pool
}

// NewSessionRepository constructs a session repository over the pool.
func NewSessionRepository(pool *Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, trainer_id, student_id, start_time, end_time, location, service,
	value, notes, status, source,
	recurrence_group_id, is_recurrence_parent, parent_session_id,
	recurrence_type, recurrence_interval, recurrence_week_days,
	recurrence_end_type, recurrence_end_count, recurrence_end_date,
	is_modified, original_start_time, original_end_time,
	created_at, updated_at`

const insertSessionSQL = `INSERT INTO sessions (` + sessionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func sessionInsertArgs(s application.Session) []any {
	var endDate sql.NullString
	if !s.Recurrence.EndDate.IsZero() {
		endDate = sql.NullString{String: formatTime(s.Recurrence.EndDate), Valid: true}
	}
	recType := s.Recurrence.Type
	if recType == "" {
		recType = recurrence.TypeNone
	}
	return []any{
		s.ID, s.TrainerID, s.StudentID,
		formatTime(s.StartTime), formatTime(s.EndTime),
		s.Location, s.Service, s.Value, s.Notes,
		string(s.Status), string(s.Source),
		nullString(s.RecurrenceGroupID), s.IsRecurrenceParent, nullString(s.ParentSessionID),
		string(recType), s.Recurrence.Interval,
		strings.Join(recurrence.WeekdayNames(s.Recurrence.WeekDays), ","),
		string(s.Recurrence.EndType), s.Recurrence.EndCount, endDate,
		s.IsModified, formatTimePtr(s.OriginalStartTime), formatTimePtr(s.OriginalEndTime),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (application.Session, error) {
	var (
		s                            application.Session
		startTime, endTime           string
		createdAt, updatedAt         string
		status, source               string
		groupID, parentID            sql.NullString
		recType, recEndType, recDays string
		recEndDate                   sql.NullString
		origStart, origEnd           sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.TrainerID, &s.StudentID, &startTime, &endTime, &s.Location, &s.Service,
		&s.Value, &s.Notes, &status, &source,
		&groupID, &s.IsRecurrenceParent, &parentID,
		&recType, &s.Recurrence.Interval, &recDays,
		&recEndType, &s.Recurrence.EndCount, &recEndDate,
		&s.IsModified, &origStart, &origEnd,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return application.Session{}, err
	}

	if s.StartTime, err = parseTime(startTime); err != nil {
		return application.Session{}, err
	}
	if s.EndTime, err = parseTime(endTime); err != nil {
		return application.Session{}, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Session{}, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Session{}, err
	}
	if s.OriginalStartTime, err = parseTimePtr(origStart); err != nil {
		return application.Session{}, err
	}
	if s.OriginalEndTime, err = parseTimePtr(origEnd); err != nil {
		return application.Session{}, err
	}

	s.Status = application.Status(status)
	s.Source = application.Source(source)
	if groupID.Valid {
		id := groupID.String
		s.RecurrenceGroupID = &id
	}
	if parentID.Valid {
		id := parentID.String
		s.ParentSessionID = &id
	}

	s.Recurrence.Type = recurrence.Type(recType)
	s.Recurrence.EndType = recurrence.EndType(recEndType)
	if recDays != "" {
		days, _ := recurrence.ParseWeekdays(strings.Split(recDays, ","))
		s.Recurrence.WeekDays = days
	}
	if recEndDate.Valid {
		if s.Recurrence.EndDate, err = parseTime(recEndDate.String); err != nil {
			return application.Session{}, err
		}
	}
	return s, nil
}

// CreateSession stores one session.
func (r *SessionRepository) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if _, err := r.pool.db.ExecContext(ctx, insertSessionSQL, sessionInsertArgs(session)...); err != nil {
		return application.Session{}, mapError(err)
	}
	return r.GetSession(ctx, session.ID)
}

// CreateSessionsBatch stores every session in one transaction.
func (r *SessionRepository) CreateSessionsBatch(ctx context.Context, sessions []application.Session) ([]application.Session, error) {
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertSessionSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, session := range sessions {
			if _, err := stmt.ExecContext(ctx, sessionInsertArgs(session)...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]application.Session, 0, len(sessions))
	for _, session := range sessions {
		stored, err := r.GetSession(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

// GetSession fetches one session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (application.Session, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return session, nil
}

// ListSessions enumerates sessions matching the filter ordered by start time.
func (r *SessionRepository) ListSessions(ctx context.Context, filter application.SessionFilter) ([]application.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var clauses []string
	var args []any
	if filter.TrainerID != "" {
		clauses = append(clauses, "trainer_id = ?")
		args = append(args, filter.TrainerID)
	}
	if filter.StudentID != "" {
		clauses = append(clauses, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.RecurrenceGroupID != "" {
		clauses = append(clauses, "recurrence_group_id = ?")
		args = append(args, filter.RecurrenceGroupID)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.From != nil {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "start_time < ?")
		args = append(args, formatTime(*filter.To))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time, id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []application.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, mapError(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sessions, nil
}

// UpdateSession applies a patch as a single parameterized UPDATE.
func (r *SessionRepository) UpdateSession(ctx context.Context, id string, patch application.SessionPatch) (application.Session, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.StartTime != nil {
		set("start_time", formatTime(*patch.StartTime))
	}
	if patch.EndTime != nil {
		set("end_time", formatTime(*patch.EndTime))
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Service != nil {
		set("service", *patch.Service)
	}
	if patch.Value != nil {
		set("value", *patch.Value)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.IsModified != nil {
		set("is_modified", *patch.IsModified)
	}
	if patch.OriginalStartTime != nil {
		set("original_start_time", formatTime(*patch.OriginalStartTime))
	}
	if patch.OriginalEndTime != nil {
		set("original_end_time", formatTime(*patch.OriginalEndTime))
	}
	if len(sets) == 0 {
		return r.GetSession(ctx, id)
	}
	set("updated_at", formatTime(time.Now()))
	args = append(args, id)

	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE sessions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Session{}, mapError(err)
	}
	if affected == 0 {
		return application.Session{}, persistence.ErrNotFound
	}
	return r.GetSession(ctx, id)
}

// DeleteSession removes one session by id.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
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

// DeleteSessionsByGroupID removes every session in the recurrence group and
// reports how many rows went away.
func (r *SessionRepository) DeleteSessionsByGroupID(ctx context.Context, groupID string) (int, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE recurrence_group_id = ?`, groupID)
	if err != nil {
		return 0, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, mapError(err)
	}
	return int(affected), nil
}

// FindOverlapping returns active sessions intersecting the half-open window
// for the trainer or, when studentID is set, the student.
func (r *SessionRepository) FindOverlapping(ctx context.Context, trainerID, studentID string, start, end time.Time, excludeID string) ([]application.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE status != ?
		AND (trainer_id = ?`
	args := []any{string(application.StatusCancelled), trainerID}
	if studentID != "" {
		query += ` OR student_id = ?`
		args = append(args, studentID)
	}
	query += `)
		AND start_time < ? AND ? < end_time`
	args = append(args, formatTime(end), formatTime(start))
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY start_time, id`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []application.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, mapError(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sessions, nil
}
