package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

const (
	snapshotPrefix = "snapshot_"
	snapshotSuffix = ".json"
)

// ErrNotFound is returned when a tournament is missing from a snapshot.
var ErrNotFound = errors.New("tournament not found")

// Storage handles persistence of tournament snapshots
type Storage struct {
	dataDir string
	now     func() time.Time
}

// New creates a Storage rooted at dataDir, creating it if needed.
func New(dataDir string) (*Storage, error) {
	if dataDir == "" {
		return nil, errors.New("data directory must not be empty")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// Dir returns the data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// snapshotPath maps a YYYY/MM/DD date to its file.
func (s *Storage) snapshotPath(date string) string {
	return filepath.Join(s.dataDir, snapshotPrefix+strings.ReplaceAll(date, "/", "-")+snapshotSuffix)
}

// LoadSnapshot loads the snapshot for date. A missing file yields an empty
// snapshot, not an error.
func (s *Storage) LoadSnapshot(date string) (*tournament.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return tournament.NewSnapshot(date), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot tournament.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Tournaments == nil {
		snapshot.Tournaments = make(map[string]tournament.Tournament)
	}
	if snapshot.Date == "" {
		snapshot.Date = date
	}

	return &snapshot, nil
}

// SaveSnapshot writes snapshot to disk under its date, stamping UpdatedAt.
// The file is written to a temporary name first and renamed into place.
func (s *Storage) SaveSnapshot(snapshot *tournament.Snapshot) error {
	if snapshot.Date == "" {
		return errors.New("snapshot has no date")
	}
	snapshot.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	path := s.snapshotPath(snapshot.Date)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// SaveTournaments creates and saves a snapshot of ts for date.
func (s *Storage) SaveTournaments(date string, ts []tournament.Tournament) error {
	snapshot := tournament.CreateSnapshot(date, ts, "")
	return s.SaveSnapshot(snapshot)
}

// GetTournamentByID retrieves a tournament from the snapshot of date.
func (s *Storage) GetTournamentByID(date, id string) (tournament.Tournament, error) {
	snapshot, err := s.LoadSnapshot(date)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("loading snapshot: %w", err)
	}

	t, exists := snapshot.Tournaments[id]
	if !exists {
		return tournament.Tournament{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Dates lists the dates that have a snapshot, oldest first, as YYYY/MM/DD.
func (s *Storage) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("listing data directory: %w", err)
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
		dates = append(dates, strings.ReplaceAll(date, "-", "/"))
	}
	sort.Strings(dates)
	return dates, nil
}

// Prune removes snapshots for dates before cutoff (YYYY/MM/DD) and returns
// how many were removed.
func (s *Storage) Prune(cutoff string) (int, error) {
	dates, err := s.Dates()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, date := range dates {
		if date >= cutoff {
			break
		}
		if err := os.Remove(s.snapshotPath(date)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing snapshot %s: %w", date, err)
		}
		removed++
	}
	return removed, nil
}
