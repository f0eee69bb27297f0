package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 3, 27, 10, 0, 0, 0, time.UTC) }
	return s
}

func testTournaments() []tournament.Tournament {
	url1 := "https://pokerfans.jp/tournament/1"
	url2 := "https://pokerfans.jp/tournament/2"
	return []tournament.Tournament{
		{ID: tournament.GenerateID(url1), Title: "Sunday Deepstack", StartTime: "19:00", Guarantee: 100000, DetailURL: url1},
		{ID: tournament.GenerateID(url2), Title: "JOPT Satellite", StartTime: "20:00", CutoffTime: "01:00", DetailURL: url2},
	}
}

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}

	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}
}

func TestLoadSnapshot_Missing(t *testing.T) {
	s := newTestStorage(t)

	snap, err := s.LoadSnapshot("2026/03/27")
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if snap.Date != "2026/03/27" {
		t.Errorf("Date = %q", snap.Date)
	}
	if snap.Tournaments == nil || len(snap.Tournaments) != 0 {
		t.Errorf("expected an empty initialized map, got %v", snap.Tournaments)
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s := newTestStorage(t)
	ts := testTournaments()

	if err := s.SaveTournaments("2026/03/27", ts); err != nil {
		t.Fatalf("SaveTournaments() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(s.Dir(), "snapshot_2026-03-27.json")); err != nil {
		t.Errorf("snapshot file not written: %v", err)
	}

	snap, err := s.LoadSnapshot("2026/03/27")
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if len(snap.Tournaments) != 2 {
		t.Fatalf("got %d tournaments, want 2", len(snap.Tournaments))
	}
	if got := snap.Tournaments[ts[0].ID]; got != ts[0] {
		t.Errorf("tournament = %+v, want %+v", got, ts[0])
	}
	if snap.UpdatedAt != "2026-03-27T10:00:00Z" {
		t.Errorf("UpdatedAt = %q", snap.UpdatedAt)
	}

	// Other dates are independent.
	other, err := s.LoadSnapshot("2026/03/28")
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Tournaments) != 0 {
		t.Errorf("other date has %d tournaments", len(other.Tournaments))
	}
}

func TestSaveSnapshot_NoDate(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SaveSnapshot(tournament.NewSnapshot("")); err == nil {
		t.Error("SaveSnapshot() without date should fail")
	}
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	s := newTestStorage(t)
	path := filepath.Join(s.Dir(), "snapshot_2026-03-27.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LoadSnapshot("2026/03/27"); err == nil {
		t.Error("LoadSnapshot() should fail on corrupt JSON")
	}
}

func TestGetTournamentByID(t *testing.T) {
	s := newTestStorage(t)
	ts := testTournaments()
	if err := s.SaveTournaments("2026/03/27", ts); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		date    string
		id      string
		want    string
		wantErr bool
	}{
		{"found", "2026/03/27", ts[1].ID, "JOPT Satellite", false},
		{"unknown id", "2026/03/27", "nope", "", true},
		{"no snapshot for date", "2026/01/01", ts[0].ID, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetTournamentByID(tt.date, tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Title != tt.want {
				t.Errorf("Title = %q, want %q", got.Title, tt.want)
			}
		})
	}
}

func TestDatesAndPrune(t *testing.T) {
	s := newTestStorage(t)
	for _, date := range []string{"2026/03/27", "2026/03/25", "2026/03/26"} {
		if err := s.SaveTournaments(date, testTournaments()); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	dates, err := s.Dates()
	if err != nil {
		t.Fatalf("Dates() error: %v", err)
	}
	want := []string{"2026/03/25", "2026/03/26", "2026/03/27"}
	if len(dates) != len(want) {
		t.Fatalf("Dates() = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("Dates()[%d] = %q, want %q", i, dates[i], want[i])
		}
	}

	removed, err := s.Prune("2026/03/27")
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
	dates, _ = s.Dates()
	if len(dates) != 1 || dates[0] != "2026/03/27" {
		t.Errorf("Dates() after prune = %v", dates)
	}
}

func TestDiffAgainstStoredSnapshot(t *testing.T) {
	s := newTestStorage(t)
	ts := testTournaments()
	if err := s.SaveTournaments("2026/03/27", ts[:1]); err != nil {
		t.Fatal(err)
	}

	prev, err := s.LoadSnapshot("2026/03/27")
	if err != nil {
		t.Fatal(err)
	}
	diff := tournament.Diff(prev, ts)
	if len(diff.New) != 1 || diff.New[0].ID != ts[1].ID {
		t.Errorf("New = %+v, want only the JOPT satellite", diff.New)
	}
}
