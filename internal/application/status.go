package application

import "strings"

// Status is a session's lifecycle state. Portuguese aliases are accepted at
// the boundary and normalized to these values.
type Status string

const (
	// StatusScheduled is the initial state of every session.
	StatusScheduled Status = "scheduled"
	// StatusCompleted marks a delivered session. Terminal.
	StatusCompleted Status = "completed"
	// StatusCancelled marks a called-off session. Terminal.
	StatusCancelled Status = "cancelled"
	// StatusNoShow marks a session the student missed. Terminal.
	StatusNoShow Status = "no-show"
	// StatusRescheduled marks a session being moved; it returns to
	// scheduled once new times are set.
	StatusRescheduled Status = "rescheduled"
)

// statusAliases maps legacy Portuguese client values onto the normalized set.
var statusAliases = map[string]Status{
	"scheduled":   StatusScheduled,
	"agendado":    StatusScheduled,
	"completed":   StatusCompleted,
	"concluido":   StatusCompleted,
	"concluído":   StatusCompleted,
	"cancelled":   StatusCancelled,
	"cancelado":   StatusCancelled,
	"no-show":     StatusNoShow,
	"falta":       StatusNoShow,
	"rescheduled": StatusRescheduled,
	"remarcado":   StatusRescheduled,
}

// ParseStatus normalizes a caller supplied status value.
func ParseStatus(value string) (Status, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(value))]
	return status, ok
}

// CanTransitionTo reports whether the normal (non-administrative) flow allows
// moving from s to next. Completed, cancelled and no-show are terminal; a
// rescheduled session may return to scheduled with new times.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	switch s {
	case StatusScheduled:
		return next == StatusCompleted || next == StatusCancelled ||
			next == StatusNoShow || next == StatusRescheduled
	case StatusRescheduled:
		return next == StatusScheduled
	default:
		return false
	}
}
