package tournament

import (
	"testing"
	"time"
)

func newTournament(url, title, start string, guarantee int) Tournament {
	return Tournament{
		ID:        GenerateID(url),
		Title:     title,
		StartTime: start,
		Guarantee: guarantee,
		DetailURL: url,
	}
}

func TestDiff(t *testing.T) {
	t1 := newTournament("https://example.com/1", "Morning Turbo", "10:00", 0)
	t2 := newTournament("https://example.com/2", "Evening Deepstack", "19:00", 100000)
	t3 := newTournament("https://example.com/3", "JOPT Satellite", "21:00", 0)

	previous := CreateSnapshot("2026/03/27", []Tournament{t1}, time.Now().UTC().Format(time.RFC3339))

	t.Run("finds new tournaments in order", func(t *testing.T) {
		result := Diff(previous, []Tournament{t1, t2, t3})

		if len(result.New) != 2 {
			t.Fatalf("expected 2 new tournaments, got %d", len(result.New))
		}
		if result.New[0].ID != t2.ID || result.New[1].ID != t3.ID {
			t.Error("expected t2 then t3 as new tournaments")
		}
		if len(result.Changes) != 0 {
			t.Errorf("expected no changes, got %d", len(result.Changes))
		}
	})

	t.Run("nil previous treats everything as new", func(t *testing.T) {
		result := Diff(nil, []Tournament{t1, t2})
		if len(result.New) != 2 {
			t.Errorf("expected 2 new tournaments, got %d", len(result.New))
		}
	})

	t.Run("detects field changes", func(t *testing.T) {
		moved := t1
		moved.StartTime = "11:00"
		moved.Guarantee = 50000

		result := Diff(previous, []Tournament{moved})
		if len(result.New) != 0 {
			t.Errorf("expected no new tournaments, got %d", len(result.New))
		}
		if len(result.Changes) != 2 {
			t.Fatalf("expected 2 changes, got %d", len(result.Changes))
		}
		if result.Changes[0].Kind != ChangeStartTime || result.Changes[0].NewValue != "11:00" {
			t.Errorf("unexpected first change: %+v", result.Changes[0])
		}
		if result.Changes[1].Kind != ChangeGuarantee || result.Changes[1].OldValue != "0" {
			t.Errorf("unexpected second change: %+v", result.Changes[1])
		}
		for _, c := range result.Changes {
			if c.Title != "Morning Turbo" {
				t.Errorf("change title = %q, want the current title", c.Title)
			}
		}
	})
}

func TestDetectChanges_New(t *testing.T) {
	cur := newTournament("https://example.com/9", "Night Bounty", "22:00", 0)
	changes := DetectChanges(nil, cur)
	if len(changes) != 1 || changes[0].Kind != ChangeNew {
		t.Fatalf("expected a single new change, got %+v", changes)
	}
	if changes[0].NewValue != "Night Bounty" {
		t.Errorf("NewValue = %q, want title", changes[0].NewValue)
	}
}
