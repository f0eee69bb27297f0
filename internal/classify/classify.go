// Package classify tags aggregated tournaments with availability, the JOPT
// flag and value ratio, then sorts and splits them for display.
//
// Classification is evaluated at the moment it runs, not when the page was
// fetched, and never mutates its input; re-running it on the same records is
// always safe.
package classify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

// Order is a total order over classified entries.
type Order string

const (
	// OrderTime sorts by start time ascending; entries without one go last.
	OrderTime Order = "time"
	// OrderValue sorts by value ratio descending; undefined ratios count as 0.
	OrderValue Order = "value"
)

// missingStart is the sort key for an absent start time.
const missingStart = "99:99"

// Entry is a tournament plus the derived flags.
type Entry struct {
	tournament.Tournament
	Available  bool     `json:"available"`
	Jopt       bool     `json:"jopt"`
	ValueRatio *float64 `json:"value_ratio,omitempty"`
}

// Result is the partition of entries into the two display sections.
type Result struct {
	Standard []Entry `json:"standard"`
	Jopt     []Entry `json:"jopt"`
}

// Len returns the total number of entries in both sections.
func (r Result) Len() int {
	return len(r.Standard) + len(r.Jopt)
}

// ParseOrder accepts "time" or "value" in any case; "" means OrderTime.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case OrderTime, "":
		return OrderTime, nil
	case OrderValue:
		return OrderValue, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want time or value)", s)
}

// Classify derives the flags of every tournament at now. Input order is kept.
func Classify(ts []tournament.Tournament, now time.Time) []Entry {
	entries := make([]Entry, len(ts))
	for i, t := range ts {
		e := Entry{
			Tournament: t,
			Available:  t.IsAvailable(now),
			Jopt:       t.IsJopt(),
		}
		if ratio, ok := t.ValueRatio(); ok {
			e.ValueRatio = &ratio
		}
		entries[i] = e
	}
	return entries
}

// Sort orders entries in place. Both orders are stable. An unknown order
// leaves the slice untouched.
func Sort(entries []Entry, order Order) {
	switch order {
	case OrderTime:
		sort.SliceStable(entries, func(i, j int) bool {
			return startKey(entries[i]) < startKey(entries[j])
		})
	case OrderValue:
		sort.SliceStable(entries, func(i, j int) bool {
			return ratioKey(entries[i]) > ratioKey(entries[j])
		})
	}
}

// Partition classifies ts at now, splits JOPT from standard entries and sorts
// each section by order.
func Partition(ts []tournament.Tournament, now time.Time, order Order) Result {
	res := Result{
		Standard: make([]Entry, 0),
		Jopt:     make([]Entry, 0),
	}
	for _, e := range Classify(ts, now) {
		if e.Jopt {
			res.Jopt = append(res.Jopt, e)
		} else {
			res.Standard = append(res.Standard, e)
		}
	}
	Sort(res.Standard, order)
	Sort(res.Jopt, order)
	return res
}

// AvailableOnly returns the entries of r that can still be entered.
func (r Result) AvailableOnly() Result {
	return Result{
		Standard: filterAvailable(r.Standard),
		Jopt:     filterAvailable(r.Jopt),
	}
}

func filterAvailable(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Available {
			out = append(out, e)
		}
	}
	return out
}

func startKey(e Entry) string {
	if e.StartTime == "" {
		return missingStart
	}
	return e.StartTime
}

func ratioKey(e Entry) float64 {
	if e.ValueRatio == nil {
		return 0
	}
	return *e.ValueRatio
}
