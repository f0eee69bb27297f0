package tournament

import (
	"sort"
	"strconv"
	"time"
)

// Snapshot is the set of tournaments listed for one date at a point in time.
type Snapshot struct {
	Date        string                `json:"date"`        // YYYY/MM/DD
	Tournaments map[string]Tournament `json:"tournaments"` // keyed by Tournament.ID
	UpdatedAt   string                `json:"updated_at"`  // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot for date
func NewSnapshot(date string) *Snapshot {
	return &Snapshot{
		Date:        date,
		Tournaments: make(map[string]Tournament),
	}
}

// CreateSnapshot creates a snapshot from a list of tournaments
func CreateSnapshot(date string, ts []Tournament, updatedAt string) *Snapshot {
	snap := NewSnapshot(date)
	snap.UpdatedAt = updatedAt
	for _, t := range ts {
		snap.Tournaments[t.ID] = t
	}
	return snap
}

// Change kinds reported by DetectChanges.
const (
	ChangeNew        = "new"
	ChangeStartTime  = "start_time"
	ChangeCutoffTime = "cutoff_time"
	ChangeGuarantee  = "guarantee"
	ChangeEntryFee   = "entry_fee"
)

// Change is a single field difference between two listings of a tournament.
type Change struct {
	TournamentID string    `json:"tournament_id"`
	Title        string    `json:"title"`
	Kind         string    `json:"kind"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	DetectedAt   time.Time `json:"detected_at"`
}

// DiffResult contains the results of comparing a snapshot with a fresh fetch
type DiffResult struct {
	New     []Tournament
	Changes []Change
}

// Diff compares current tournaments against a previous snapshot. New
// tournaments keep the order of current; changes are sorted by tournament ID.
func Diff(previous *Snapshot, current []Tournament) *DiffResult {
	result := &DiffResult{
		New:     make([]Tournament, 0),
		Changes: make([]Change, 0),
	}
	if previous == nil {
		previous = NewSnapshot("")
	}

	for _, t := range current {
		old, exists := previous.Tournaments[t.ID]
		if !exists {
			result.New = append(result.New, t)
			continue
		}
		result.Changes = append(result.Changes, DetectChanges(&old, t)...)
	}

	sort.SliceStable(result.Changes, func(i, j int) bool {
		return result.Changes[i].TournamentID < result.Changes[j].TournamentID
	})
	return result
}

// DetectChanges compares two listings of the same tournament.
// A nil previous yields a single ChangeNew.
func DetectChanges(previous *Tournament, current Tournament) []Change {
	now := time.Now().UTC()
	if previous == nil {
		return []Change{{TournamentID: current.ID, Title: current.Title, Kind: ChangeNew, NewValue: current.Title, DetectedAt: now}}
	}

	var changes []Change
	add := func(kind, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, Change{
				TournamentID: current.ID,
				Title:        current.Title,
				Kind:         kind,
				OldValue:     oldValue,
				NewValue:     newValue,
				DetectedAt:   now,
			})
		}
	}

	add(ChangeStartTime, previous.StartTime, current.StartTime)
	add(ChangeCutoffTime, previous.CutoffTime, current.CutoffTime)
	add(ChangeGuarantee, strconv.Itoa(previous.Guarantee), strconv.Itoa(current.Guarantee))
	add(ChangeEntryFee, strconv.Itoa(previous.EntryFee), strconv.Itoa(current.EntryFee))
	return changes
}
