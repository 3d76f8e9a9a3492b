package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Window is a same-day time span in minutes since midnight. Overnight spans
// are not representable.
type Window struct {
	Start int
	End   int
}

// ParseClock converts a 24-hour "HH:MM" (or "H:MM") string to minutes since
// midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseWindow parses a start/end pair. The end must be strictly after the
// start.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, fmt.Errorf("end time %s must be after start time %s", FormatClock(e), FormatClock(s))
	}
	return Window{Start: s, End: e}, nil
}

// Overlaps reports whether w conflicts with other. Windows are half-open, so
// touching windows do not conflict. The three clauses are: w starts inside
// other, w ends inside other, w encloses other.
func (w Window) Overlaps(other Window) bool {
	startsInside := other.Start <= w.Start && w.Start < other.End
	endsInside := other.Start < w.End && w.End <= other.End
	encloses := w.Start <= other.Start && w.End >= other.End
	return startsInside || endsInside || encloses
}

// ContainsMinute reports whether minute falls in w with both ends inclusive.
// Unlike Overlaps the upper bound counts, so two touching windows both
// contain their shared boundary minute.
func (w Window) ContainsMinute(minute int) bool {
	return w.Start <= minute && minute <= w.End
}

func (w Window) String() string {
	return FormatClock(w.Start) + " - " + FormatClock(w.End)
}

// MinuteOfDay returns the wall-clock minute of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Hour()*60 + t.Minute()
}
