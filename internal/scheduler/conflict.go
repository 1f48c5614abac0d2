package scheduler

import (
	"fmt"
	"sort"
	"time"
)

// Session is the minimal view of a booked time block needed for conflict
// analysis.
type Session struct {
	ID        string
	TrainerID string
	StudentID string
	Start     time.Time
	End       time.Time
}

// Party identifies which side of a booking collided.
type Party string

const (
	// PartyTrainer marks a conflict on the trainer's calendar.
	PartyTrainer Party = "trainer"
	// PartyStudent marks a conflict on the student's calendar.
	PartyStudent Party = "student"
)

// Severity distinguishes true overlaps from buffer-zone proximity.
type Severity string

const (
	// SeverityHard marks a genuine time overlap.
	SeverityHard Severity = "hard"
	// SeveritySoft marks a session inside the configured buffer zone only.
	SeveritySoft Severity = "soft"
)

// Conflict describes one colliding session.
type Conflict struct {
	SessionID string
	Party     Party
	Severity  Severity
	Start     time.Time
	End       time.Time
	Reason    string
}

// Slot is a conflict-free alternative window offered alongside conflicts.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Config tunes conflict detection and slot suggestion.
type Config struct {
	// Buffer is applied symmetrically around the candidate window so
	// back-to-back bookings surface as soft conflicts.
	Buffer time.Duration
	// DayStart and DayEnd bound the suggestion ladder, as offsets from
	// midnight of the candidate's day.
	DayStart time.Duration
	DayEnd   time.Duration
	// SlotStep is the ladder granularity.
	SlotStep time.Duration
	// MaxSuggestions caps the number of alternative slots returned.
	MaxSuggestions int
}

// Detector scans existing sessions for temporal overlap with a candidate
// window. It is a pure computation over the sessions it is handed; loading
// the relevant sessions is the caller's concern.
type Detector struct {
	cfg Config
}

// NewDetector constructs a Detector, filling zero config fields with the
// service defaults (15 minute buffer, 06:00-21:00 ladder in 30 minute steps,
// five suggestions).
func NewDetector(cfg Config) *Detector {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 15 * time.Minute
	}
	if cfg.DayStart <= 0 {
		cfg.DayStart = 6 * time.Hour
	}
	if cfg.DayEnd <= 0 || cfg.DayEnd <= cfg.DayStart {
		cfg.DayEnd = 21 * time.Hour
	}
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = 30 * time.Minute
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 5
	}
	return &Detector{cfg: cfg}
}

// FindConflicts reports every existing session that collides with the
// candidate window for either party. excludeID lets update-in-place checks
// ignore the session being edited. The result is ordered by the colliding
// session's start time; it is empty when the calendar is clear.
func (d *Detector) FindConflicts(existing []Session, candidate Session, excludeID string) []Conflict {
	bufferedStart := candidate.Start.Add(-d.cfg.Buffer)
	bufferedEnd := candidate.End.Add(d.cfg.Buffer)

	var conflicts []Conflict
	for _, s := range existing {
		if s.ID != "" && (s.ID == excludeID || s.ID == candidate.ID) {
			continue
		}

		var party Party
		switch {
		case s.TrainerID == candidate.TrainerID && candidate.TrainerID != "":
			party = PartyTrainer
		case s.StudentID == candidate.StudentID && candidate.StudentID != "":
			party = PartyStudent
		default:
			continue
		}

		hard := Overlaps(candidate.Start, candidate.End, s.Start, s.End)
		if !hard && !Overlaps(bufferedStart, bufferedEnd, s.Start, s.End) {
			continue
		}

		severity := SeveritySoft
		if hard {
			severity = SeverityHard
		}
		conflicts = append(conflicts, Conflict{
			SessionID: s.ID,
			Party:     party,
			Severity:  severity,
			Start:     s.Start,
			End:       s.End,
			Reason:    conflictReason(party, severity, s),
		})
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Start.Equal(conflicts[j].Start) {
			return conflicts[i].SessionID < conflicts[j].SessionID
		}
		return conflicts[i].Start.Before(conflicts[j].Start)
	})
	return conflicts
}

// HasHardTrainerConflict reports whether any conflict is a genuine overlap on
// the trainer's side, the condition that blocks a booking outright.
func HasHardTrainerConflict(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Party == PartyTrainer && c.Severity == SeverityHard {
			return true
		}
	}
	return false
}

// SuggestSlots probes a ladder of common start times on the candidate's day
// for the same trainer and duration, returning the first conflict-free
// windows. Best effort: not exhaustive and not guaranteed optimal.
func (d *Detector) SuggestSlots(existing []Session, candidate Session) []Slot {
	duration := candidate.End.Sub(candidate.Start)
	if duration <= 0 {
		return nil
	}

	y, m, day := candidate.Start.Date()
	midnight := time.Date(y, m, day, 0, 0, 0, 0, candidate.Start.Location())

	trainerSessions := make([]Session, 0, len(existing))
	for _, s := range existing {
		if s.TrainerID == candidate.TrainerID && s.ID != candidate.ID {
			trainerSessions = append(trainerSessions, s)
		}
	}

	var slots []Slot
	for offset := d.cfg.DayStart; offset+duration <= d.cfg.DayEnd; offset += d.cfg.SlotStep {
		start := midnight.Add(offset)
		end := start.Add(duration)

		free := true
		for _, s := range trainerSessions {
			if Overlaps(start, end, s.Start, s.End) {
				free = false
				break
			}
		}
		if !free {
			continue
		}

		slots = append(slots, Slot{Start: start, End: end})
		if len(slots) >= d.cfg.MaxSuggestions {
			break
		}
	}
	return slots
}

func conflictReason(party Party, severity Severity, s Session) string {
	who := "trainer"
	if party == PartyStudent {
		who = "student"
	}
	if severity == SeveritySoft {
		return fmt.Sprintf("%s has a session from %s to %s within the buffer zone",
			who, s.Start.Format("15:04"), s.End.Format("15:04"))
	}
	return fmt.Sprintf("%s already has a session from %s to %s",
		who, s.Start.Format("15:04"), s.End.Format("15:04"))
}
