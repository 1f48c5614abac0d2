package grouping

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// seriesFromDeltas builds a cluster starting June 2 09:00 whose successive
// start times are spaced by the given day deltas.
func seriesFromDeltas(id string, deltas ...int) []Session {
	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	sessions := []Session{{
		ID: id + "-0", TrainerID: "t1", StudentID: "a1", Location: "studio",
		Start: start, End: start.Add(time.Hour), Status: "completed",
	}}
	cur := start
	for i, d := range deltas {
		cur = cur.AddDate(0, 0, d)
		sessions = append(sessions, Session{
			ID: id + "-" + string(rune('1'+i)), TrainerID: "t1", StudentID: "a1", Location: "studio",
			Start: cur, End: cur.Add(time.Hour), Status: "scheduled",
		})
	}
	return sessions
}

func TestGroupSessions_WeeklyCadence(t *testing.T) {
	t.Parallel()

	detector := NewDetector(Config{}, fixedNow)
	result := detector.GroupSessions(seriesFromDeltas("w", 7, 7, 8, 7, 7))

	require.Len(t, result.Recurring, 1)
	assert.Empty(t, result.Individual)
	assert.Equal(t, CadenceWeekly, result.Recurring[0].Cadence)
	assert.Equal(t, "every Monday", result.Recurring[0].Pattern)
}

func TestGroupSessions_OutlierCountsInDenominator(t *testing.T) {
	t.Parallel()

	detector := NewDetector(Config{}, fixedNow)

	// Deltas [7,7,20,7,7]: 4 of 5 within ±1 of 7 → 80% ≥ 70%, still weekly.
	result := detector.GroupSessions(seriesFromDeltas("o", 7, 7, 20, 7, 7))
	require.Len(t, result.Recurring, 1)
	assert.Equal(t, CadenceWeekly, result.Recurring[0].Cadence)

	// Deltas [7,20,20,20,7]: 2 of 5 weekly, below threshold for every cadence.
	result = detector.GroupSessions(seriesFromDeltas("n", 7, 20, 20, 20, 7))
	assert.Empty(t, result.Recurring)
	assert.Len(t, result.Individual, 6)
}

func TestGroupSessions_BiweeklyAndMonthly(t *testing.T) {
	t.Parallel()

	detector := NewDetector(Config{}, fixedNow)

	result := detector.GroupSessions(seriesFromDeltas("b", 14, 13, 15, 14))
	require.Len(t, result.Recurring, 1)
	assert.Equal(t, CadenceBiweekly, result.Recurring[0].Cadence)
	assert.Equal(t, "every other Monday", result.Recurring[0].Pattern)

	result = detector.GroupSessions(seriesFromDeltas("m", 30, 31, 28, 30))
	require.Len(t, result.Recurring, 1)
	assert.Equal(t, CadenceMonthly, result.Recurring[0].Cadence)
	assert.Equal(t, "monthly", result.Recurring[0].Pattern)
}

func TestGroupSessions_SmallClustersStayIndividual(t *testing.T) {
	t.Parallel()

	detector := NewDetector(Config{}, fixedNow)
	result := detector.GroupSessions(seriesFromDeltas("s", 7))

	assert.Empty(t, result.Recurring)
	assert.Len(t, result.Individual, 2)
}

func TestGroupSessions_ClusterRequiresExactTupleMatch(t *testing.T) {
	t.Parallel()

	detector := NewDetector(Config{}, fixedNow)
	sessions := seriesFromDeltas("x", 7, 7, 7)
	// Same parties and cadence but a different location must not join.
	other := sessions[0]
	other.ID = "elsewhere"
	other.Location = "park"
	sessions = append(sessions, other)

	result := detector.GroupSessions(sessions)
	require.Len(t, result.Recurring, 1)
	assert.Len(t, result.Recurring[0].Sessions, 4)
	require.Len(t, result.Individual, 1)
	assert.Equal(t, "elsewhere", result.Individual[0].ID)
}

func TestGroupSessions_OrderIndependent(t *testing.T) {
	t.Parallel()

	detector := NewDetector(Config{}, fixedNow)
	sessions := append(seriesFromDeltas("a", 7, 7, 7, 7), seriesFromDeltas("q", 3, 11, 2)...)

	baseline := detector.GroupSessions(sessions)

	shuffled := make([]Session, len(sessions))
	copy(shuffled, sessions)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := detector.GroupSessions(shuffled)
		assert.Equal(t, baseline, got)
	}
}

func TestGroupSessions_StatsAndNextSession(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	mk := func(id string, dayOffset int, status string) Session {
		s := start.AddDate(0, 0, dayOffset)
		return Session{
			ID: id, TrainerID: "t1", StudentID: "a1", Location: "studio",
			Start: s, End: s.Add(time.Hour), Status: status,
		}
	}

	sessions := []Session{
		mk("1", 0, "completed"),
		mk("2", 7, "no-show"),
		mk("3", 14, "cancelled"),
		mk("4", 21, "scheduled"), // 2025-06-23, after testNow
		mk("5", 28, "scheduled"),
	}

	detector := NewDetector(Config{}, fixedNow)
	result := detector.GroupSessions(sessions)
	require.Len(t, result.Recurring, 1)

	group := result.Recurring[0]
	assert.Equal(t, Stats{
		Total:          5,
		Upcoming:       2,
		Completed:      1,
		Cancelled:      1,
		NoShow:         1,
		CompletionRate: 0.2,
	}, group.Stats)

	require.NotNil(t, group.NextSession)
	assert.Equal(t, "4", group.NextSession.ID)
	assert.Equal(t, "09:00-10:00", group.TimeSlot)
}

func TestGroupSessions_NoUpcomingNextSessionNil(t *testing.T) {
	t.Parallel()

	sessions := seriesFromDeltas("p", 7, 7, 7)
	for i := range sessions {
		sessions[i].Status = "completed"
	}

	detector := NewDetector(Config{}, fixedNow)
	result := detector.GroupSessions(sessions)
	require.Len(t, result.Recurring, 1)
	assert.Nil(t, result.Recurring[0].NextSession)
}
