package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tournament-radar/pokerfans-events/internal/classify"
	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Value label thresholds, in percent of entry revenue.
const (
	GoodValue  = 100.0
	GreatValue = 150.0
)

// OutputResult contains data to be output
type OutputResult struct {
	Date        string              `json:"date"`
	CheckedAt   time.Time           `json:"checked_at"`
	LastUpdated time.Time           `json:"last_updated"`
	Order       classify.Order      `json:"order"`
	Standard    []classify.Entry    `json:"standard"`
	Jopt        []classify.Entry    `json:"jopt"`
	Count       int                 `json:"count"`
	NewCount    int                 `json:"new_count"`
	NewOnly     bool                `json:"new_only,omitempty"`
	FailedPages int                 `json:"failed_pages,omitempty"`
	Changes     []tournament.Change `json:"changes,omitempty"`
}

// yen formats amounts with Japanese digit grouping.
var yen = message.NewPrinter(language.Japanese)

// FormatYen renders an amount as ¥12,345.
func FormatYen(amount int) string {
	return yen.Sprintf("¥%d", amount)
}

// ValueLabel describes how generous the guarantee is relative to the entry
// revenue collected so far.
func ValueLabel(e classify.Entry) string {
	if e.Guarantee <= 0 {
		return "no guarantee"
	}
	if e.ValueRatio == nil {
		return "no entries"
	}
	r := *e.ValueRatio
	switch {
	case r >= GreatValue:
		return fmt.Sprintf("★★ %.1f%%", r)
	case r >= GoodValue:
		return fmt.Sprintf("★ %.1f%%", r)
	default:
		return fmt.Sprintf("%.1f%%", r)
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	label := "tournaments"
	if result.NewOnly {
		label = "new tournaments"
	}

	fmt.Fprintf(w, "Pokerfans %s", result.Date)
	if !result.LastUpdated.IsZero() {
		fmt.Fprintf(w, " (last updated %s)", result.LastUpdated.In(result.CheckedAt.Location()).Format("15:04:05"))
	}
	fmt.Fprintln(w)
	if result.FailedPages > 0 {
		fmt.Fprintf(w, "Warning: %d page(s) could not be fetched; results may be incomplete.\n", result.FailedPages)
	}

	if result.Count == 0 {
		fmt.Fprintf(w, "No %s found.\n", label)
		writeChanges(w, result.Changes)
		return nil
	}

	writeSection(w, "Tournaments", result.Standard, verbose)
	writeSection(w, "JOPT", result.Jopt, verbose)
	writeChanges(w, result.Changes)

	fmt.Fprintf(w, "\nTotal: %d %s", result.Count, label)
	if !result.NewOnly && result.NewCount > 0 {
		fmt.Fprintf(w, " (%d new)", result.NewCount)
	}
	fmt.Fprintln(w)
	return nil
}

func writeSection(w io.Writer, title string, entries []classify.Entry, verbose bool) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s (%d):\n", title, len(entries))
	for _, e := range entries {
		status := "closed"
		if e.Available {
			status = "open"
		}
		fmt.Fprintf(w, "  [%-6s] %s  %s\n", status, timeRange(e), e.Title)
		if e.Venue != "" {
			fmt.Fprintf(w, "           Venue: %s\n", e.Venue)
		}
		fmt.Fprintf(w, "           Fee: %s  Entries: %s\n", FormatYen(e.EntryFee), entryCount(e))
		if e.Guarantee > 0 {
			fmt.Fprintf(w, "           Guarantee: %s  Collected: %s  Value: %s\n",
				FormatYen(e.Guarantee), FormatYen(e.TotalEntryAmount()), ValueLabel(e))
			if n := e.BreakEvenEntries(); n > 0 {
				fmt.Fprintf(w, "           Break-even: %d entries\n", n)
			}
		} else {
			fmt.Fprintf(w, "           Value: %s\n", ValueLabel(e))
		}
		if verbose {
			fmt.Fprintf(w, "           ID: %s\n", e.ID)
			fmt.Fprintf(w, "           URL: %s\n", e.DetailURL)
		}
	}
}

func writeChanges(w io.Writer, changes []tournament.Change) {
	if len(changes) == 0 {
		return
	}

	fmt.Fprintf(w, "\nChanged since last run (%d):\n", len(changes))
	for _, ch := range changes {
		if ch.Kind == tournament.ChangeNew {
			fmt.Fprintf(w, "  %s: new\n", ch.Title)
			continue
		}
		fmt.Fprintf(w, "  %s: %s %s → %s\n", ch.Title, changeLabel(ch.Kind),
			changeValue(ch.Kind, ch.OldValue), changeValue(ch.Kind, ch.NewValue))
	}
}

func changeLabel(kind string) string {
	switch kind {
	case tournament.ChangeStartTime:
		return "start"
	case tournament.ChangeCutoffTime:
		return "cutoff"
	case tournament.ChangeGuarantee:
		return "guarantee"
	case tournament.ChangeEntryFee:
		return "fee"
	default:
		return kind
	}
}

// changeValue renders amounts as yen and empty times as --:--.
func changeValue(kind, v string) string {
	switch kind {
	case tournament.ChangeGuarantee, tournament.ChangeEntryFee:
		if n, err := strconv.Atoi(v); err == nil {
			return FormatYen(n)
		}
	case tournament.ChangeStartTime, tournament.ChangeCutoffTime:
		if v == "" {
			return "--:--"
		}
	}
	return v
}

func timeRange(e classify.Entry) string {
	start := e.StartTime
	if start == "" {
		start = "--:--"
	}
	if e.CutoffTime == "" {
		return start
	}
	return fmt.Sprintf("%s (〆%s)", start, e.CutoffTime)
}

func entryCount(e classify.Entry) string {
	if e.MaxEntries > 0 {
		return fmt.Sprintf("%d/%d", e.CurrentEntries, e.MaxEntries)
	}
	return fmt.Sprintf("%d", e.CurrentEntries)
}
