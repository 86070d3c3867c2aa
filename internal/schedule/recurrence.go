package schedule

import (
	"fmt"
	"strings"
	"time"
)

// LastDayOfMonth is the day-of-month sentinel meaning "the last day of the
// evaluated month", whatever that is (28, 29, 30 or 31).
const LastDayOfMonth = 32

// Cadence labels as stored in the schedule_type column.
const (
	KindWeekly    = "weekly"
	KindMonthly   = "monthly"
	KindQuarterly = "quarterly"
	KindAnnually  = "annually"
	KindPeriodic  = "periodic"
)

// Recurrence decides whether a calendar date falls on the schedule.
// Implementations are pure; only the date portion of the argument matters,
// and it must already be expressed in the window's timezone.
type Recurrence interface {
	Matches(date time.Time) bool
}

// Weekly matches dates whose weekday is in Days. An empty set matches nothing.
type Weekly struct {
	Days map[time.Weekday]bool
}

func (w Weekly) Matches(date time.Time) bool {
	return w.Days[date.Weekday()]
}

// Monthly matches one day each month, or the month's last day when
// Day == LastDayOfMonth.
type Monthly struct {
	Day int
}

func (m Monthly) Matches(date time.Time) bool {
	return dayMatches(m.Day, date)
}

// Quarterly matches one day in one month of each quarter. MonthOfQuarter is
// 1..3: 1 means Jan/Apr/Jul/Oct, 2 means Feb/May/Aug/Nov, 3 means Mar/Jun/Sep/Dec.
type Quarterly struct {
	MonthOfQuarter int
	Day            int
}

func (q Quarterly) Matches(date time.Time) bool {
	monthInQuarter := (int(date.Month())-1)%3 + 1
	return monthInQuarter == q.MonthOfQuarter && dayMatches(q.Day, date)
}

// Annually matches one day of one month each year.
type Annually struct {
	Month time.Month
	Day   int
}

func (a Annually) Matches(date time.Time) bool {
	return date.Month() == a.Month && dayMatches(a.Day, date)
}

// Periodic matches every Every whole days counted from the Start date,
// ignoring time of day. Dates before Start never match.
type Periodic struct {
	Every int
	Start time.Time
}

func (p Periodic) Matches(date time.Time) bool {
	if p.Every <= 0 {
		return false
	}
	days := daysBetween(p.Start, date)
	if days < 0 {
		return false
	}
	return days%p.Every == 0
}

// dayMatches applies the day-of-month rule shared by the monthly, quarterly
// and annual cadences, including the last-day sentinel.
func dayMatches(day int, date time.Time) bool {
	if day == LastDayOfMonth {
		return date.Day() == lastDay(date)
	}
	return date.Day() == day
}

// lastDay returns the number of days in date's month.
func lastDay(date time.Time) int {
	firstOfNext := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// daysBetween counts whole calendar days from a to b, date-only.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Spec carries the raw schedule columns of a window row. Zero values mean the
// column was NULL. It decodes into a Recurrence variant and validates itself
// for creation-time checks.
type Spec struct {
	Kind        string
	DaysOfWeek  string // comma-separated weekday names, e.g. "Monday,Friday"
	DayOfMonth  int
	MonthOfYear int
	PeriodDays  int
	PeriodStart time.Time
}

// Recurrence returns the variant for the spec, or nil when the kind is unknown
// or a required field is missing. A nil recurrence never matches, so a
// misconfigured window fails closed to inactive.
func (s Spec) Recurrence() Recurrence {
	switch s.Kind {
	case KindWeekly:
		return Weekly{Days: parseWeekdays(s.DaysOfWeek)}
	case KindMonthly:
		if !validDay(s.DayOfMonth) {
			return nil
		}
		return Monthly{Day: s.DayOfMonth}
	case KindQuarterly:
		if s.MonthOfYear < 1 || s.MonthOfYear > 3 || !validDay(s.DayOfMonth) {
			return nil
		}
		return Quarterly{MonthOfQuarter: s.MonthOfYear, Day: s.DayOfMonth}
	case KindAnnually:
		if s.MonthOfYear < 1 || s.MonthOfYear > 12 || !validDay(s.DayOfMonth) {
			return nil
		}
		return Annually{Month: time.Month(s.MonthOfYear), Day: s.DayOfMonth}
	case KindPeriodic:
		if s.PeriodDays < 1 || s.PeriodStart.IsZero() {
			return nil
		}
		return Periodic{Every: s.PeriodDays, Start: s.PeriodStart}
	}
	return nil
}

// Validate rejects specs that could never fire, so misconfiguration surfaces
// at creation time instead of as a window that silently never activates.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindWeekly:
		if len(parseWeekdays(s.DaysOfWeek)) == 0 {
			return fmt.Errorf("weekly schedule requires at least one valid weekday, got %q", s.DaysOfWeek)
		}
	case KindMonthly:
		if !validDay(s.DayOfMonth) {
			return fmt.Errorf("monthly schedule requires day_of_month 1-31 or %d for last day", LastDayOfMonth)
		}
	case KindQuarterly:
		if s.MonthOfYear < 1 || s.MonthOfYear > 3 {
			return fmt.Errorf("quarterly schedule requires month_of_year 1-3, got %d", s.MonthOfYear)
		}
		if !validDay(s.DayOfMonth) {
			return fmt.Errorf("quarterly schedule requires day_of_month 1-31 or %d for last day", LastDayOfMonth)
		}
	case KindAnnually:
		if s.MonthOfYear < 1 || s.MonthOfYear > 12 {
			return fmt.Errorf("annual schedule requires month_of_year 1-12, got %d", s.MonthOfYear)
		}
		if !validDay(s.DayOfMonth) {
			return fmt.Errorf("annual schedule requires day_of_month 1-31 or %d for last day", LastDayOfMonth)
		}
	case KindPeriodic:
		if s.PeriodDays < 1 {
			return fmt.Errorf("periodic schedule requires period_days >= 1, got %d", s.PeriodDays)
		}
		if s.PeriodStart.IsZero() {
			return fmt.Errorf("periodic schedule requires a period_start_date")
		}
	default:
		return fmt.Errorf("unknown schedule type %q", s.Kind)
	}
	return nil
}

func validDay(day int) bool {
	return (day >= 1 && day <= 31) || day == LastDayOfMonth
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseWeekdays parses a comma-separated list of full weekday names,
// case-insensitively. Unrecognized names are skipped.
func parseWeekdays(s string) map[time.Weekday]bool {
	out := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if wd, ok := weekdayNames[name]; ok {
			out[wd] = true
		}
	}
	return out
}
