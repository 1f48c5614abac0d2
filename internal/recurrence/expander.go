package recurrence

import (
	"errors"
	"time"
)

// DefaultMaxOccurrences caps generation regardless of the declared end
// condition, guarding against pathological rules.
const DefaultMaxOccurrences = 365

var (
	// ErrNotRecurring indicates the rule type does not describe a series.
	ErrNotRecurring = errors.New("recurrence: rule is not recurring")
	// ErrInvalidWindow indicates the base window does not end after it starts.
	ErrInvalidWindow = errors.New("recurrence: base end must be after base start")
	// ErrUnboundedRule indicates the rule lacks a resolvable end condition.
	ErrUnboundedRule = errors.New("recurrence: rule requires an end condition")
	// ErrMissingWeekdays indicates a weekly rule without a weekday set.
	ErrMissingWeekdays = errors.New("recurrence: weekly rule requires weekdays")
	// ErrNoOccurrences indicates the rule generated zero instances.
	ErrNoOccurrences = errors.New("recurrence: rule produced no occurrences")
)

// Window is a concrete start/end pair produced by expansion.
type Window struct {
	Start time.Time
	End   time.Time
}

// Expander turns a rule plus a base window into the finite, ordered list of
// session windows to create. The wall-clock time of day of the base window is
// preserved on every instance; only the calendar date advances.
type Expander struct {
	maxOccurrences int
}

// NewExpander constructs an Expander with the given generation ceiling.
// Values below one fall back to DefaultMaxOccurrences.
func NewExpander(maxOccurrences int) *Expander {
	if maxOccurrences < 1 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Expander{maxOccurrences: maxOccurrences}
}

// Expand generates the concrete windows for rule anchored at base.
//
// Semantics per rule type:
//   - daily: one instance per step of Interval days.
//   - weekly: day-by-day iteration emitting dates whose weekday is selected;
//     after each 7-day window the cursor jumps (Interval-1) weeks forward.
//   - monthly: same day of month every Interval months, clamped to the last
//     day of shorter months.
//
// Generation stops at EndCount instances, past EndDate (inclusive on the
// start date), or at the safety ceiling, whichever comes first. A rule that
// yields nothing returns ErrNoOccurrences.
func (e *Expander) Expand(base Window, rule Rule) ([]Window, error) {
	if !base.End.After(base.Start) {
		return nil, ErrInvalidWindow
	}
	if !rule.IsRecurring() {
		return nil, ErrNotRecurring
	}
	if rule.Type == TypeWeekly && len(rule.WeekDays) == 0 {
		return nil, ErrMissingWeekdays
	}

	limit := e.maxOccurrences
	switch rule.EndType {
	case EndTypeCount:
		if rule.EndCount < 1 {
			return nil, ErrUnboundedRule
		}
		if rule.EndCount < limit {
			limit = rule.EndCount
		}
	case EndTypeDate:
		if rule.EndDate.IsZero() {
			return nil, ErrUnboundedRule
		}
	default:
		return nil, ErrUnboundedRule
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	bound, hasBound := e.upperBound(rule, base.Start.Location())

	var windows []Window
	switch rule.Type {
	case TypeDaily:
		for cur := base.Start; len(windows) < limit; cur = cur.AddDate(0, 0, interval) {
			if hasBound && cur.After(bound) {
				break
			}
			windows = append(windows, instanceOn(cur, base))
		}
	case TypeWeekly:
		baseDay := base.Start.Weekday()
		cur := base.Start
		// The iteration guard covers the worst case of sparse weekday sets
		// combined with large intervals.
		maxSteps := limit*7*interval + 7
		for step := 0; len(windows) < limit && step < maxSteps; step++ {
			if hasBound && cur.After(bound) {
				break
			}
			if rule.ContainsWeekday(cur.Weekday()) {
				windows = append(windows, instanceOn(cur, base))
			}
			cur = cur.AddDate(0, 0, 1)
			if cur.Weekday() == baseDay && interval > 1 {
				cur = cur.AddDate(0, 0, (interval-1)*7)
			}
		}
	case TypeMonthly:
		for months := 0; len(windows) < limit; months += interval {
			cur := monthAnchor(base.Start, months)
			if hasBound && cur.After(bound) {
				break
			}
			windows = append(windows, instanceOn(cur, base))
		}
	}

	if len(windows) == 0 {
		return nil, ErrNoOccurrences
	}
	return windows, nil
}

// upperBound resolves the inclusive generation bound for date-terminated
// rules. The end date is widened to the final instant of its calendar day so
// a date-only bound still admits instances starting later that day.
func (e *Expander) upperBound(rule Rule, loc *time.Location) (time.Time, bool) {
	if rule.EndType != EndTypeDate || rule.EndDate.IsZero() {
		return time.Time{}, false
	}
	y, m, d := rule.EndDate.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, 0, loc), true
}

// instanceOn projects the base window's wall-clock times onto the date of
// anchor. A window that crosses midnight keeps its duration by ending on the
// following day.
func instanceOn(anchor time.Time, base Window) Window {
	y, m, d := anchor.Date()
	loc := base.Start.Location()
	start := time.Date(y, m, d, base.Start.Hour(), base.Start.Minute(), 0, 0, loc)
	end := time.Date(y, m, d, base.End.Hour(), base.End.Minute(), 0, 0, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return Window{Start: start, End: end}
}

// monthAnchor returns the base date shifted by the given number of months,
// clamped to the last day of the target month.
func monthAnchor(base time.Time, months int) time.Time {
	y, m, _ := base.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, base.Location())
	shifted := first.AddDate(0, months, 0)
	day := base.Day()
	if last := daysInMonth(shifted.Year(), shifted.Month()); day > last {
		day = last
	}
	return shifted.AddDate(0, 0, day-1)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
