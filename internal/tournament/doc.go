// Package tournament provides the tournament record type and the rules that are
// derived from it: day/night availability, value ratio and snapshot diffing.
//
// Each tournament is assigned a deterministic SHA1-based ID generated from its
// detail URL, so the same listing keeps its identity across fetches.
package tournament
