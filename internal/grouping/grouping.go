// Package grouping infers recurring series from flat session history.
//
// The detector is a best-effort read path for reports and dashboards. Stored
// recurrence metadata, not this heuristic, decides whether a booking is
// permitted; its output must never feed back into scheduling decisions.
package grouping

import (
	"fmt"
	"sort"
	"time"
)

// Cadence classifies the spacing of an inferred series.
type Cadence string

const (
	// CadenceWeekly marks deltas clustering around 7 days.
	CadenceWeekly Cadence = "weekly"
	// CadenceBiweekly marks deltas clustering around 14 days.
	CadenceBiweekly Cadence = "biweekly"
	// CadenceMonthly marks deltas clustering around 30 days.
	CadenceMonthly Cadence = "monthly"
)

// Session is the read-only view the detector operates on. Status values are
// the normalized English forms.
type Session struct {
	ID        string
	TrainerID string
	StudentID string
	Location  string
	Start     time.Time
	End       time.Time
	Status    string
}

// Stats summarizes an inferred group.
type Stats struct {
	Total          int
	Upcoming       int
	Completed      int
	Cancelled      int
	NoShow         int
	CompletionRate float64
}

// Group is one inferred recurring series.
type Group struct {
	Cadence     Cadence
	Pattern     string
	TrainerID   string
	StudentID   string
	Location    string
	TimeSlot    string
	Sessions    []Session
	NextSession *Session
	Stats       Stats
}

// Result partitions the input into inferred series and standalone sessions.
type Result struct {
	Recurring  []Group
	Individual []Session
}

// Config tunes the cadence classification thresholds. All deltas count toward
// the denominator, outliers included.
type Config struct {
	// WeeklyTolerance admits deltas within ±N days of 7.
	WeeklyTolerance int
	// BiweeklyTolerance admits deltas within ±N days of 14.
	BiweeklyTolerance int
	// MonthlyTolerance admits deltas within ±N days of 30.
	MonthlyTolerance int
	// Majority is the fraction of deltas that must match a cadence.
	Majority float64
	// MinClusterSize is the smallest cluster considered for classification.
	MinClusterSize int
}

// Detector clusters sessions and classifies each cluster's cadence.
type Detector struct {
	cfg Config
	now func() time.Time
}

// NewDetector constructs a Detector. Zero config fields fall back to the
// historical defaults (±1/±2/±5 days, 70% majority, clusters of three). A nil
// now func uses time.Now.
func NewDetector(cfg Config, now func() time.Time) *Detector {
	if cfg.WeeklyTolerance <= 0 {
		cfg.WeeklyTolerance = 1
	}
	if cfg.BiweeklyTolerance <= 0 {
		cfg.BiweeklyTolerance = 2
	}
	if cfg.MonthlyTolerance <= 0 {
		cfg.MonthlyTolerance = 5
	}
	if cfg.Majority <= 0 || cfg.Majority > 1 {
		cfg.Majority = 0.7
	}
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = 3
	}
	if now == nil {
		now = time.Now
	}
	return &Detector{cfg: cfg, now: now}
}

// GroupSessions partitions sessions into inferred recurring series and
// individual sessions. The result is deterministic regardless of input order:
// clusters sort by their key, members by start time.
func (d *Detector) GroupSessions(sessions []Session) Result {
	clusters := make(map[string][]Session)
	for _, s := range sessions {
		key := clusterKey(s)
		clusters[key] = append(clusters[key], s)
	}

	keys := make([]string, 0, len(clusters))
	for key := range clusters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result Result
	for _, key := range keys {
		members := clusters[key]
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Start.Equal(members[j].Start) {
				return members[i].ID < members[j].ID
			}
			return members[i].Start.Before(members[j].Start)
		})

		if len(members) < d.cfg.MinClusterSize {
			result.Individual = append(result.Individual, members...)
			continue
		}

		cadence, ok := d.classify(members)
		if !ok {
			result.Individual = append(result.Individual, members...)
			continue
		}

		first := members[0]
		group := Group{
			Cadence:   cadence,
			Pattern:   patternLabel(cadence, first.Start.Weekday()),
			TrainerID: first.TrainerID,
			StudentID: first.StudentID,
			Location:  first.Location,
			TimeSlot:  timeSlot(first),
			Sessions:  members,
			Stats:     d.stats(members),
		}
		group.NextSession = d.nextSession(members)
		result.Recurring = append(result.Recurring, group)
	}

	sort.SliceStable(result.Individual, func(i, j int) bool {
		if result.Individual[i].Start.Equal(result.Individual[j].Start) {
			return result.Individual[i].ID < result.Individual[j].ID
		}
		return result.Individual[i].Start.Before(result.Individual[j].Start)
	})

	return result
}

// classify inspects the day deltas between successive members. Checks run
// weekly, then biweekly, then monthly; the first cadence reaching the
// majority threshold wins.
func (d *Detector) classify(members []Session) (Cadence, bool) {
	deltas := make([]int, 0, len(members)-1)
	for i := 1; i < len(members); i++ {
		deltas = append(deltas, int(members[i].Start.Sub(members[i-1].Start)/(24*time.Hour)))
	}
	if len(deltas) == 0 {
		return "", false
	}

	checks := []struct {
		cadence   Cadence
		target    int
		tolerance int
	}{
		{CadenceWeekly, 7, d.cfg.WeeklyTolerance},
		{CadenceBiweekly, 14, d.cfg.BiweeklyTolerance},
		{CadenceMonthly, 30, d.cfg.MonthlyTolerance},
	}

	for _, check := range checks {
		matched := 0
		for _, delta := range deltas {
			if abs(delta-check.target) <= check.tolerance {
				matched++
			}
		}
		if float64(matched) >= float64(len(deltas))*d.cfg.Majority {
			return check.cadence, true
		}
	}
	return "", false
}

func (d *Detector) stats(members []Session) Stats {
	now := d.now()
	stats := Stats{Total: len(members)}
	for _, s := range members {
		switch s.Status {
		case "completed":
			stats.Completed++
		case "cancelled":
			stats.Cancelled++
		case "no-show":
			stats.NoShow++
		case "scheduled":
			if s.Start.After(now) {
				stats.Upcoming++
			}
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return stats
}

// nextSession picks the earliest upcoming scheduled member, or nil.
func (d *Detector) nextSession(members []Session) *Session {
	now := d.now()
	for i := range members {
		if members[i].Status == "scheduled" && members[i].Start.After(now) {
			next := members[i]
			return &next
		}
	}
	return nil
}

func clusterKey(s Session) string {
	return fmt.Sprintf("%s|%s|%s|%s", s.StudentID, s.TrainerID, s.Location, timeSlot(s))
}

func timeSlot(s Session) string {
	return s.Start.Format("15:04") + "-" + s.End.Format("15:04")
}

func patternLabel(cadence Cadence, day time.Weekday) string {
	switch cadence {
	case CadenceWeekly:
		return fmt.Sprintf("every %s", day)
	case CadenceBiweekly:
		return fmt.Sprintf("every other %s", day)
	case CadenceMonthly:
		return "monthly"
	default:
		return ""
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
