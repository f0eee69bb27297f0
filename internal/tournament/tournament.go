package tournament

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// JoptMarker identifies tournaments belonging to the JOPT championship series.
const JoptMarker = "jopt"

// Tournament is one listed event from the listing page.
type Tournament struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Venue          string `json:"venue"`
	StartTime      string `json:"start_time,omitempty"`  // HH:MM, empty when absent
	CutoffTime     string `json:"cutoff_time,omitempty"` // HH:MM, empty when absent
	EntryFee       int    `json:"entry_fee"`
	CurrentEntries int    `json:"current_entries"`
	MaxEntries     int    `json:"max_entries"`
	Guarantee      int    `json:"guarantee"`
	DetailURL      string `json:"detail_url"`
}

// GenerateID creates a deterministic ID from the detail URL
func GenerateID(detailURL string) string {
	h := sha1.New()
	h.Write([]byte(detailURL))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// TotalEntryAmount is the entry fee revenue collected so far.
func (t Tournament) TotalEntryAmount() int {
	return t.EntryFee * t.CurrentEntries
}

// ValueRatio returns guarantee ÷ (entry fee × current entries) × 100.
// The second result is false when the ratio is undefined, i.e. there is no
// guarantee or no entry revenue yet.
func (t Tournament) ValueRatio() (float64, bool) {
	total := t.TotalEntryAmount()
	if t.Guarantee <= 0 || total <= 0 {
		return 0, false
	}
	return float64(t.Guarantee) / float64(total) * 100, true
}

// BreakEvenEntries is the number of entries at which entry revenue covers the
// guarantee. Returns 0 when either side is missing.
func (t Tournament) BreakEvenEntries() int {
	if t.Guarantee <= 0 || t.EntryFee <= 0 {
		return 0
	}
	return t.Guarantee / t.EntryFee
}

// IsJopt reports whether the title carries the JOPT marker, in any case.
func (t Tournament) IsJopt() bool {
	return strings.Contains(strings.ToLower(t.Title), JoptMarker)
}
