package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseWindow(t *testing.T, start string, duration time.Duration) Window {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	return Window{Start: ts, End: ts.Add(duration)}
}

func TestExpand_WeeklyAlternatingDays(t *testing.T) {
	t.Parallel()

	// 2025-06-02 is a Monday.
	base := baseWindow(t, "2025-06-02T09:00:00Z", time.Hour)
	rule := Rule{
		Type:     TypeWeekly,
		Interval: 1,
		WeekDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		EndType:  EndTypeCount,
		EndCount: 6,
	}

	windows, err := NewExpander(0).Expand(base, rule)
	require.NoError(t, err)
	require.Len(t, windows, 6)

	wantDays := []int{2, 4, 6, 9, 11, 13}
	for i, w := range windows {
		assert.Equal(t, time.June, w.Start.Month())
		assert.Equal(t, wantDays[i], w.Start.Day())
		assert.Equal(t, 9, w.Start.Hour())
		assert.Equal(t, w.Start.Add(time.Hour), w.End)
	}
}

func TestExpand_WeeklyBiweeklyInterval(t *testing.T) {
	t.Parallel()

	base := baseWindow(t, "2025-06-02T18:30:00Z", 45*time.Minute)
	rule := Rule{
		Type:     TypeWeekly,
		Interval: 2,
		WeekDays: []time.Weekday{time.Monday},
		EndType:  EndTypeCount,
		EndCount: 3,
	}

	windows, err := NewExpander(0).Expand(base, rule)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Equal(t, 2, windows[0].Start.Day())
	assert.Equal(t, 16, windows[1].Start.Day())
	assert.Equal(t, 30, windows[2].Start.Day())
	for _, w := range windows {
		assert.Equal(t, time.Monday, w.Start.Weekday())
		assert.Equal(t, 18, w.Start.Hour())
		assert.Equal(t, 30, w.Start.Minute())
	}
}

func TestExpand_DailyInterval(t *testing.T) {
	t.Parallel()

	base := baseWindow(t, "2025-06-02T07:00:00Z", time.Hour)
	rule := Rule{Type: TypeDaily, Interval: 3, EndType: EndTypeCount, EndCount: 4}

	windows, err := NewExpander(0).Expand(base, rule)
	require.NoError(t, err)
	require.Len(t, windows, 4)

	wantDays := []int{2, 5, 8, 11}
	for i, w := range windows {
		assert.Equal(t, wantDays[i], w.Start.Day())
	}
}

func TestExpand_DailyEndDateInclusive(t *testing.T) {
	t.Parallel()

	base := baseWindow(t, "2025-06-02T07:00:00Z", time.Hour)
	rule := Rule{
		Type:    TypeDaily,
		EndType: EndTypeDate,
		EndDate: time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
	}

	windows, err := NewExpander(0).Expand(base, rule)
	require.NoError(t, err)
	// June 2..5 — the end date itself still admits an instance.
	require.Len(t, windows, 4)
	last := windows[len(windows)-1]
	assert.Equal(t, 5, last.Start.Day())
	for _, w := range windows {
		assert.False(t, w.Start.After(rule.EndDate.Add(24*time.Hour)))
	}
}

func TestExpand_MonthlyClampsShortMonths(t *testing.T) {
	t.Parallel()

	base := baseWindow(t, "2025-01-31T10:00:00Z", time.Hour)
	rule := Rule{Type: TypeMonthly, Interval: 1, EndType: EndTypeCount, EndCount: 4}

	windows, err := NewExpander(0).Expand(base, rule)
	require.NoError(t, err)
	require.Len(t, windows, 4)

	assert.Equal(t, time.Date(2025, time.January, 31, 10, 0, 0, 0, time.UTC), windows[0].Start)
	assert.Equal(t, time.Date(2025, time.February, 28, 10, 0, 0, 0, time.UTC), windows[1].Start)
	assert.Equal(t, time.Date(2025, time.March, 31, 10, 0, 0, 0, time.UTC), windows[2].Start)
	assert.Equal(t, time.Date(2025, time.April, 30, 10, 0, 0, 0, time.UTC), windows[3].Start)
}

func TestExpand_SafetyCeiling(t *testing.T) {
	t.Parallel()

	base := baseWindow(t, "2025-06-02T07:00:00Z", time.Hour)
	rule := Rule{Type: TypeDaily, EndType: EndTypeCount, EndCount: 1000}

	windows, err := NewExpander(10).Expand(base, rule)
	require.NoError(t, err)
	assert.Len(t, windows, 10)
}

func TestExpand_CrossesMidnight(t *testing.T) {
	t.Parallel()

	start, err := time.Parse(time.RFC3339, "2025-06-02T23:30:00Z")
	require.NoError(t, err)
	base := Window{Start: start, End: start.Add(time.Hour)}
	rule := Rule{Type: TypeDaily, EndType: EndTypeCount, EndCount: 2}

	windows, expandErr := NewExpander(0).Expand(base, rule)
	require.NoError(t, expandErr)
	for _, w := range windows {
		assert.True(t, w.End.After(w.Start))
		assert.Equal(t, time.Hour, w.End.Sub(w.Start))
	}
}

func TestExpand_Errors(t *testing.T) {
	t.Parallel()

	base := baseWindow(t, "2025-06-02T09:00:00Z", time.Hour)

	tests := []struct {
		name string
		base Window
		rule Rule
		want error
	}{
		{
			name: "not recurring",
			base: base,
			rule: Rule{Type: TypeNone},
			want: ErrNotRecurring,
		},
		{
			name: "inverted window",
			base: Window{Start: base.End, End: base.Start},
			rule: Rule{Type: TypeDaily, EndType: EndTypeCount, EndCount: 1},
			want: ErrInvalidWindow,
		},
		{
			name: "weekly without weekdays",
			base: base,
			rule: Rule{Type: TypeWeekly, EndType: EndTypeCount, EndCount: 3},
			want: ErrMissingWeekdays,
		},
		{
			name: "missing end condition",
			base: base,
			rule: Rule{Type: TypeDaily},
			want: ErrUnboundedRule,
		},
		{
			name: "zero end count",
			base: base,
			rule: Rule{Type: TypeDaily, EndType: EndTypeCount},
			want: ErrUnboundedRule,
		},
		{
			name: "weekday never reached before end date",
			base: base,
			rule: Rule{
				Type:     TypeWeekly,
				WeekDays: []time.Weekday{time.Friday},
				EndType:  EndTypeDate,
				// Base is Monday 2025-06-02; Wednesday the 4th ends the range.
				EndDate: time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC),
			},
			want: ErrNoOccurrences,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewExpander(0).Expand(tt.base, tt.rule)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseWeekdays(t *testing.T) {
	t.Parallel()

	days, invalid := ParseWeekdays([]string{"segunda", "Wednesday", "sexta", "monday", "bogus"})
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, days)
	assert.Equal(t, []string{"bogus"}, invalid)

	assert.Equal(t, []string{"monday", "wednesday", "friday"}, WeekdayNames(days))
}
