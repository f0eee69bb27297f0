// Package calendar exports tournaments as an iCalendar (.ics) file.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

// DefaultDuration is used when a tournament has no usable cutoff time.
const DefaultDuration = 4 * time.Hour

// maxLineOctets is the RFC 5545 content line limit before folding.
const maxLineOctets = 75

// StartOf places a tournament's start time on day, in day's location.
// Late-night starts belong to the early hours after day. The second result
// is false when the tournament has no start time.
func StartOf(t tournament.Tournament, day time.Time) (time.Time, bool) {
	c, ok := tournament.ParseClock(t.StartTime)
	if !ok {
		return time.Time{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
	if c.LateNight() {
		start = start.AddDate(0, 0, 1)
	}
	return start, true
}

// EndOf returns the registration cutoff following start, or start plus
// DefaultDuration when there is none.
func EndOf(t tournament.Tournament, start time.Time) time.Time {
	c, ok := tournament.ParseClock(t.CutoffTime)
	if !ok {
		return start.Add(DefaultDuration)
	}
	end := time.Date(start.Year(), start.Month(), start.Day(), c.Hour, c.Minute, 0, 0, start.Location())
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// GenerateICS builds one calendar holding a VEVENT per tournament listed on
// day. Tournaments without a start time are left out. Returns "" when no
// tournament can be placed.
func GenerateICS(ts []tournament.Tournament, day time.Time, name string, stamp time.Time) string {
	var events strings.Builder
	count := 0
	for _, t := range ts {
		start, ok := StartOf(t, day)
		if !ok {
			continue
		}
		writeEvent(&events, t, start, EndOf(t, start), stamp)
		count++
	}
	if count == 0 {
		return ""
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Tournament Radar//pokerfans-events//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}
	ics.WriteString(events.String())
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

func writeEvent(b *strings.Builder, t tournament.Tournament, start, end, stamp time.Time) {
	b.WriteString("BEGIN:VEVENT\r\n")

	writeLine(b, fmt.Sprintf("UID:%s@pokerfans.jp", t.ID))
	writeLine(b, "DTSTAMP:"+formatICSTime(stamp))
	writeLine(b, "DTSTART:"+formatICSTime(start))
	writeLine(b, "DTEND:"+formatICSTime(end))
	writeLine(b, "SUMMARY:"+escapeICS(t.Title))
	writeLine(b, "DESCRIPTION:"+escapeICS(description(t)))
	if t.Venue != "" {
		writeLine(b, "LOCATION:"+escapeICS(t.Venue))
	}
	if t.DetailURL != "" {
		writeLine(b, "URL:"+t.DetailURL)
	}
	b.WriteString("STATUS:CONFIRMED\r\n")
	b.WriteString("TRANSP:OPAQUE\r\n")

	b.WriteString("END:VEVENT\r\n")
}

func description(t tournament.Tournament) string {
	lines := []string{fmt.Sprintf("Start: %s", t.StartTime)}
	if t.CutoffTime != "" {
		lines = append(lines, fmt.Sprintf("Late registration until: %s", t.CutoffTime))
	}
	if t.EntryFee > 0 {
		lines = append(lines, fmt.Sprintf("Entry fee: %d JPY", t.EntryFee))
	}
	if t.MaxEntries > 0 {
		lines = append(lines, fmt.Sprintf("Entries: %d/%d", t.CurrentEntries, t.MaxEntries))
	} else {
		lines = append(lines, fmt.Sprintf("Entries: %d", t.CurrentEntries))
	}
	if t.Guarantee > 0 {
		lines = append(lines, fmt.Sprintf("Guarantee: %d", t.Guarantee))
	}
	if t.DetailURL != "" {
		lines = append(lines, "", t.DetailURL)
	}
	return strings.Join(lines, "\n")
}

// writeLine writes a content line, folding it so no physical line exceeds 75
// octets. Folds never split a UTF-8 sequence.
func writeLine(b *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineOctets - 1 // continuation lines start with a space
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func isRuneStart(c byte) bool {
	return c&0xC0 != 0x80
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
