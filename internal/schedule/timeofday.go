package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time within a day, comparable directly.
// The zero value is midnight.
type TimeOfDay struct {
	secs int // seconds since midnight, 0..86399
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	var h, m, sec int
	var err error
	if h, err = strconv.Atoi(parts[0]); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	if m, err = strconv.Atoi(parts[1]); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	if len(parts) == 3 {
		if sec, err = strconv.Atoi(parts[2]); err != nil {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay{secs: h*3600 + m*60 + sec}, nil
}

// At returns the time of day of t in t's own location.
func At(t time.Time) TimeOfDay {
	return TimeOfDay{secs: t.Hour()*3600 + t.Minute()*60 + t.Second()}
}

// Before reports whether t is strictly earlier in the day than o.
func (t TimeOfDay) Before(o TimeOfDay) bool { return t.secs < o.secs }

// After reports whether t is strictly later in the day than o.
func (t TimeOfDay) After(o TimeOfDay) bool { return t.secs > o.secs }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.secs/3600, t.secs/60%60, t.secs%60)
}
