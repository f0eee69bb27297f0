// Package storage provides JSON-based persistence for tournament snapshots.
//
// Each listing date gets its own file (snapshot_YYYY-MM-DD.json) in the data
// directory, holding every tournament seen for that date on the last run. The
// CLI compares a fresh aggregation against it to report new tournaments.
// The default storage location is ~/.local/share/pokerfans-events/.
package storage
