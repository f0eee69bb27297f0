// Package cli implements the command-line interface for pokerfans-events.
//
// The root command aggregates every listing page for a date, classifies the
// tournaments at the current time and prints them as text or JSON, split into
// the standard and JOPT sections. Each run is compared against the stored
// snapshot for the date so new tournaments can be reported; --watch keeps the
// process running and re-renders on an interval, refreshing the page cache
// less often.
package cli
