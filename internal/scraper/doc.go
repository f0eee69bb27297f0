// Package scraper provides HTTP fetching and HTML parsing for pokerfans.jp
// tournament listings.
//
// The scraper fetches one listing page at a time with the site's fixed query
// parameters, extracts tournament blocks, drops ring games and venues outside
// the configured location, and reads the pagination bar to learn how many
// pages exist. A single malformed block never aborts a page, and a failed
// request yields an empty page with default pagination alongside the error so
// callers can carry on. Detail pages can optionally be fetched to refine the
// guarantee; those results are cached per URL for the life of the Client.
package scraper
