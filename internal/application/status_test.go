package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value string
		want  Status
		ok    bool
	}{
		{"scheduled", StatusScheduled, true},
		{"Agendado", StatusScheduled, true},
		{"completed", StatusCompleted, true},
		{"concluido", StatusCompleted, true},
		{"concluído", StatusCompleted, true},
		{"cancelado", StatusCancelled, true},
		{"falta", StatusNoShow, true},
		{"no-show", StatusNoShow, true},
		{"remarcado", StatusRescheduled, true},
		{"  rescheduled  ", StatusRescheduled, true},
		{"unknown", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.value)
		assert.Equal(t, tc.ok, ok, "value %q", tc.value)
		assert.Equal(t, tc.want, got, "value %q", tc.value)
	}
}

func TestCanTransitionTo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusScheduled, StatusRescheduled, true},
		{StatusScheduled, StatusScheduled, false},
		{StatusRescheduled, StatusScheduled, true},
		{StatusRescheduled, StatusCompleted, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusNoShow, StatusCompleted, false},
	}
	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equal(t, tc.want, got, "%s -> %s", tc.from, tc.to)
	}
}
