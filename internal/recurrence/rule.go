package recurrence

import (
	"strings"
	"time"
)

// Type identifies how a series repeats.
type Type string

const (
	// TypeNone marks a one-off session with no recurrence.
	TypeNone Type = "none"
	// TypeDaily repeats every Interval days.
	TypeDaily Type = "daily"
	// TypeWeekly repeats on the selected weekdays, every Interval weeks.
	TypeWeekly Type = "weekly"
	// TypeMonthly repeats on the base day of month, every Interval months.
	TypeMonthly Type = "monthly"
)

// EndType identifies how a recurring series terminates.
type EndType string

const (
	// EndTypeCount stops after EndCount generated instances.
	EndTypeCount EndType = "count"
	// EndTypeDate stops once a generated start date passes EndDate (inclusive).
	EndTypeDate EndType = "date"
)

// Rule describes a recurrence configuration. It is embedded in scheduling
// requests and snapshotted onto every generated session; it is never stored
// as an entity of its own.
type Rule struct {
	Type     Type
	Interval int
	WeekDays []time.Weekday
	EndType  EndType
	EndCount int
	EndDate  time.Time
}

// IsRecurring reports whether the rule describes a repeating series.
func (r Rule) IsRecurring() bool {
	switch r.Type {
	case TypeDaily, TypeWeekly, TypeMonthly:
		return true
	default:
		return false
	}
}

// ContainsWeekday reports whether day is part of the rule's weekday set.
func (r Rule) ContainsWeekday(day time.Weekday) bool {
	for _, d := range r.WeekDays {
		if d == day {
			return true
		}
	}
	return false
}

// ParseType normalizes a caller supplied recurrence type.
func ParseType(value string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeNone, "":
		return TypeNone, true
	case TypeDaily:
		return TypeDaily, true
	case TypeWeekly:
		return TypeWeekly, true
	case TypeMonthly:
		return TypeMonthly, true
	default:
		return TypeNone, false
	}
}

// ParseEndType normalizes a caller supplied end condition type.
func ParseEndType(value string) (EndType, bool) {
	switch EndType(strings.ToLower(strings.TrimSpace(value))) {
	case EndTypeCount:
		return EndTypeCount, true
	case EndTypeDate:
		return EndTypeDate, true
	default:
		return "", false
	}
}

// weekdayNames maps canonical names to Go weekdays. Portuguese aliases are
// accepted because the scheduling clients historically sent them.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"domingo":   time.Sunday,
	"segunda":   time.Monday,
	"terca":     time.Tuesday,
	"terça":     time.Tuesday,
	"quarta":    time.Wednesday,
	"quinta":    time.Thursday,
	"sexta":     time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

var canonicalWeekdays = [...]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// ParseWeekday resolves a weekday name (English or Portuguese) to a weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return day, ok
}

// WeekdayName returns the canonical lowercase English name for day.
func WeekdayName(day time.Weekday) string {
	if day < time.Sunday || day > time.Saturday {
		return ""
	}
	return canonicalWeekdays[day]
}

// ParseWeekdays resolves a list of weekday names, deduplicating while
// preserving first-seen order. The second return lists names that did not
// resolve.
func ParseWeekdays(names []string) ([]time.Weekday, []string) {
	seen := make(map[time.Weekday]struct{}, len(names))
	days := make([]time.Weekday, 0, len(names))
	var invalid []string
	for _, name := range names {
		day, ok := ParseWeekday(name)
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days, invalid
}

// WeekdayNames converts a weekday set back to canonical names.
func WeekdayNames(days []time.Weekday) []string {
	names := make([]string, 0, len(days))
	for _, day := range days {
		if name := WeekdayName(day); name != "" {
			names = append(names, name)
		}
	}
	return names
}
