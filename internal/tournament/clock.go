package tournament

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LateNightEnd is the hour at which the late-night window (00:00-06:59) closes.
const LateNightEnd = 7

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM". Out-of-range or malformed values report false.
func ParseClock(s string) (Clock, bool) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Clock{}, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Clock{}, false
	}
	return Clock{Hour: h, Minute: m}, true
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Before compares (hour, minute) lexicographically.
func (c Clock) Before(o Clock) bool {
	if c.Hour != o.Hour {
		return c.Hour < o.Hour
	}
	return c.Minute < o.Minute
}

// LateNight reports whether c falls in 00:00-06:59.
func (c Clock) LateNight() bool {
	return c.Hour >= 0 && c.Hour < LateNightEnd
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
