package window

import (
	"time"

	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/models"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/schedule"
)

// timeLayout is the wire format for absolute timestamps in responses.
const timeLayout = "2006-01-02 15:04:05"

// IsActive reports whether w silences its targets at instant now.
//
// Ad-hoc windows are active strictly before their expiry. Scheduled windows
// are evaluated on the calendar date in the window's own timezone; a window
// whose schedule fields did not decode (nil Recurrence) never activates.
func IsActive(w models.MaintenanceWindow, now time.Time) bool {
	if w.Type == models.WindowAdhoc {
		return now.Before(w.SilenceUntil)
	}
	if w.Recurrence == nil {
		return false
	}

	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	if w.AllDay() {
		return w.Recurrence.Matches(local)
	}

	tod := schedule.At(local)
	if w.Start.After(*w.End) {
		// Overnight span. Evening portion: today matches and we are at or past
		// the start. Morning portion: we are at or before the end and yesterday
		// matched, carrying a span like 22:00-06:00 across midnight.
		if w.Recurrence.Matches(local) && !tod.Before(*w.Start) {
			return true
		}
		return !tod.After(*w.End) && w.Recurrence.Matches(local.AddDate(0, 0, -1))
	}
	return w.Recurrence.Matches(local) && !tod.Before(*w.Start) && !tod.After(*w.End)
}
