package tournament

import "time"

// IsAvailable reports whether a tournament can still be joined at now.
// now must already be expressed in the listing's timezone.
//
// Late-night starts (00:00-06:59) only count as today's event while now is
// itself late-night. Day and evening starts are open until they start, and
// after that until the cutoff; a late-night cutoff belongs to the next
// calendar day unless now has already crossed midnight.
func IsAvailable(start, cutoff string, now time.Time) bool {
	s, ok := ParseClock(start)
	if !ok {
		return false
	}
	n := ClockOf(now)

	if s.LateNight() {
		if !n.LateNight() {
			return false
		}
		return n.Before(s)
	}

	if n.Before(s) {
		return true
	}

	c, ok := ParseClock(cutoff)
	if !ok {
		return false
	}
	if c.LateNight() {
		if n.LateNight() {
			return n.Before(c)
		}
		return true
	}
	return n.Before(c)
}

// IsAvailable reports whether t can still be joined at now.
func (t Tournament) IsAvailable(now time.Time) bool {
	return IsAvailable(t.StartTime, t.CutoffTime, now)
}
