package models

import (
	"time"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/schedule"
)

// WindowType distinguishes recurring schedules from one-off overrides.
type WindowType string

const (
	// WindowScheduled recurs on one of the cadence patterns.
	WindowScheduled WindowType = "scheduled"
	// WindowAdhoc silences until a fixed expiry instant.
	WindowAdhoc WindowType = "adhoc"
)

// MaintenanceWindow is a silencing definition covering one or more hosts or
// host groups. Exactly one of the scheduled/adhoc field sets is meaningful,
// per Type. The evaluation engine never mutates a window.
type MaintenanceWindow struct {
	ID          int
	Type        WindowType
	Description string
	CreatedBy   string

	// Scheduled windows. Recurrence is nil when the row's schedule fields are
	// missing or unparseable; such a window never activates.
	Recurrence schedule.Recurrence
	Cadence    string // raw schedule_type label, for display
	Start      *schedule.TimeOfDay
	End        *schedule.TimeOfDay
	Location   *time.Location

	// Adhoc windows: active strictly before this instant.
	SilenceUntil time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllDay reports whether a scheduled window has no time-of-day restriction.
func (w MaintenanceWindow) AllDay() bool {
	return w.Start == nil || w.End == nil
}

// TimeWindow renders the time-of-day range for display, e.g. "22:00:00-06:00:00".
func (w MaintenanceWindow) TimeWindow() string {
	if w.AllDay() {
		return "all day"
	}
	return w.Start.String() + "-" + w.End.String()
}
