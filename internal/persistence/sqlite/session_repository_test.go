package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/persistence"
	"github.com/example/training-crm/internal/recurrence"
	"github.com/example/training-crm/internal/testfixtures"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, Migrate(context.Background(), pool))
	return pool
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository(newTestPool(t))

	groupID := "group-1"
	rule := recurrence.Rule{
		Type:     recurrence.TypeWeekly,
		Interval: 2,
		WeekDays: []time.Weekday{time.Monday, time.Wednesday},
		EndType:  recurrence.EndTypeDate,
		EndDate:  time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
	}
	fixture := testfixtures.NewSessionFixture(
		testfixtures.WithSessionGroup(groupID),
		testfixtures.WithSessionRecurrence(rule),
	)
	session := fixture.Application()
	session.IsRecurrenceParent = true

	created, err := repo.CreateSession(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, session.ID, created.ID)
	assert.True(t, created.IsRecurrenceParent)
	require.NotNil(t, created.RecurrenceGroupID)
	assert.Equal(t, groupID, *created.RecurrenceGroupID)
	assert.Equal(t, rule.Type, created.Recurrence.Type)
	assert.Equal(t, rule.Interval, created.Recurrence.Interval)
	assert.Equal(t, rule.WeekDays, created.Recurrence.WeekDays)
	assert.Equal(t, rule.EndType, created.Recurrence.EndType)
	assert.True(t, rule.EndDate.Equal(created.Recurrence.EndDate))
	assert.True(t, session.StartTime.Equal(created.StartTime))
}

func TestSessionRepository_GetMissing(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository(newTestPool(t))

	_, err := repo.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSessionRepository_BatchIsAtomic(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository(newTestPool(t))

	good := testfixtures.NewSessionFixture().Application()
	dup := testfixtures.NewSessionFixture().Application()
	dup.ID = good.ID

	_, err := repo.CreateSessionsBatch(context.Background(), []application.Session{good, dup})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	listed, err := repo.ListSessions(context.Background(), application.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSessionRepository_FindOverlapping(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository(newTestPool(t))

	base := testfixtures.ReferenceTime()
	booked := testfixtures.NewSessionFixture(
		testfixtures.WithSessionTrainer("trainer-x"),
		testfixtures.WithSessionTimes(base, base.Add(time.Hour)),
	).Application()
	cancelled := testfixtures.NewSessionFixture(
		testfixtures.WithSessionTrainer("trainer-x"),
		testfixtures.WithSessionTimes(base.Add(2*time.Hour), base.Add(3*time.Hour)),
		testfixtures.WithSessionStatus(application.StatusCancelled),
	).Application()
	_, err := repo.CreateSessionsBatch(context.Background(), []application.Session{booked, cancelled})
	require.NoError(t, err)

	// True overlap with the active session.
	found, err := repo.FindOverlapping(context.Background(), "trainer-x", "",
		base.Add(30*time.Minute), base.Add(90*time.Minute), "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, booked.ID, found[0].ID)

	// Touching windows do not overlap.
	found, err = repo.FindOverlapping(context.Background(), "trainer-x", "",
		base.Add(time.Hour), base.Add(2*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, found)

	// A cancelled session never blocks.
	found, err = repo.FindOverlapping(context.Background(), "trainer-x", "",
		base.Add(2*time.Hour), base.Add(3*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, found)

	// The excluded session is invisible to itself.
	found, err = repo.FindOverlapping(context.Background(), "trainer-x", "",
		base, base.Add(time.Hour), booked.ID)
	require.NoError(t, err)
	assert.Empty(t, found)

	// Student side matches too.
	found, err = repo.FindOverlapping(context.Background(), "trainer-other", booked.StudentID,
		base, base.Add(time.Hour), "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, booked.ID, found[0].ID)
}

func TestSessionRepository_UpdatePatch(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository(newTestPool(t))

	fixture := testfixtures.NewSessionFixture()
	_, err := repo.CreateSession(context.Background(), fixture.Application())
	require.NoError(t, err)

	newStart := fixture.StartTime.Add(2 * time.Hour)
	newEnd := newStart.Add(time.Hour)
	modified := true
	origStart := fixture.StartTime
	notes := "moved by request"
	updated, err := repo.UpdateSession(context.Background(), fixture.ID, application.SessionPatch{
		StartTime:         &newStart,
		EndTime:           &newEnd,
		Notes:             &notes,
		IsModified:        &modified,
		OriginalStartTime: &origStart,
	})
	require.NoError(t, err)
	assert.True(t, newStart.Equal(updated.StartTime))
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.IsModified)
	require.NotNil(t, updated.OriginalStartTime)
	assert.True(t, origStart.Equal(*updated.OriginalStartTime))

	// An inverted window trips the table constraint.
	bad := fixture.StartTime.Add(-time.Hour)
	_, err = repo.UpdateSession(context.Background(), fixture.ID, application.SessionPatch{
		EndTime: &bad,
	})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
}

func TestSessionRepository_DeleteGroup(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository(newTestPool(t))

	var sessions []application.Session
	for i := 0; i < 3; i++ {
		sessions = append(sessions, testfixtures.NewSessionFixture(
			testfixtures.WithSessionGroup("group-del"),
		).Application())
	}
	keeper := testfixtures.NewSessionFixture().Application()
	sessions = append(sessions, keeper)
	_, err := repo.CreateSessionsBatch(context.Background(), sessions)
	require.NoError(t, err)

	count, err := repo.DeleteSessionsByGroupID(context.Background(), "group-del")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	remaining, err := repo.ListSessions(context.Background(), application.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keeper.ID, remaining[0].ID)

	count, err = repo.DeleteSessionsByGroupID(context.Background(), "group-del")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionRepository_ListFilters(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository(newTestPool(t))

	base := testfixtures.ReferenceTime()
	first := testfixtures.NewSessionFixture(
		testfixtures.WithSessionTrainer("trainer-a"),
		testfixtures.WithSessionTimes(base, base.Add(time.Hour)),
	).Application()
	second := testfixtures.NewSessionFixture(
		testfixtures.WithSessionTrainer("trainer-b"),
		testfixtures.WithSessionTimes(base.AddDate(0, 0, 1), base.AddDate(0, 0, 1).Add(time.Hour)),
	).Application()
	_, err := repo.CreateSessionsBatch(context.Background(), []application.Session{first, second})
	require.NoError(t, err)

	byTrainer, err := repo.ListSessions(context.Background(), application.SessionFilter{TrainerID: "trainer-a"})
	require.NoError(t, err)
	require.Len(t, byTrainer, 1)
	assert.Equal(t, first.ID, byTrainer[0].ID)

	to := base.AddDate(0, 0, 1)
	windowed, err := repo.ListSessions(context.Background(), application.SessionFilter{From: &base, To: &to})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, first.ID, windowed[0].ID)
}
