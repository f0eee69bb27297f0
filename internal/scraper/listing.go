package scraper

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tournament-radar/pokerfans-events/internal/guarantee"
	"github.com/tournament-radar/pokerfans-events/internal/logger"
	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

// Selectors for the listing markup.
const (
	selEvent        = ".profile-event"
	selTitleLink    = "h5 > a.color-green.tooltips"
	selVenue        = "div.oneline span"
	selTime         = "strong.text-danger"
	selFeeCandidate = "div.col-xs-6 span"
	selEntries      = "i.icon-users + span"
)

// RingKeywords mark cash ring games, which are not tournaments.
var RingKeywords = []string{"リング", "コインリング", "RING", "Ring", "ring"}

var (
	startTimePattern  = regexp.MustCompile(`(\d{2}:\d{2})`)
	cutoffTimePattern = regexp.MustCompile(`(?:〆|End)(\d{2}:\d{2})`)
	feeMarkerPattern  = regexp.MustCompile(`\(?E\)?|エントリー|参加費|¥|円|￥`)
	digitsPattern     = regexp.MustCompile(`\d+`)
)

var (
	errRingGame        = errors.New("ring game")
	errOutsideLocation = errors.New("venue outside location")
)

func (c *Client) parseListing(r io.Reader, page int) (*Page, error) {
	return ParseListing(r, c.baseURL, c.location, page)
}

// ParseListing parses a listing document into tournaments and pagination.
// Detail links are resolved against baseURL; fallbackPage is used when the
// document has no pagination bar.
func ParseListing(r io.Reader, baseURL, location string, fallbackPage int) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return &Page{
		Tournaments: ExtractTournaments(doc, baseURL, location),
		Pagination:  ParsePagination(doc, fallbackPage),
	}, nil
}

// ExtractTournaments reads every event block in doc. Ring games, venues not
// containing location and malformed blocks are skipped.
func ExtractTournaments(doc *goquery.Document, baseURL, location string) []tournament.Tournament {
	tournaments := make([]tournament.Tournament, 0)

	doc.Find(selEvent).Each(func(i int, sel *goquery.Selection) {
		t, err := extractTournament(sel, baseURL, location)
		switch {
		case err == nil:
			tournaments = append(tournaments, t)
		case errors.Is(err, errRingGame), errors.Is(err, errOutsideLocation):
			logger.IncrCounter("scraper.blocks_filtered")
		default:
			logger.IncrCounter("scraper.blocks_malformed")
			logger.Debug("skipping malformed event block", logger.Fields{
				"index": i,
				"error": err.Error(),
			})
		}
	})

	return tournaments
}

// extractTournament reads a single event block.
func extractTournament(sel *goquery.Selection, baseURL, location string) (tournament.Tournament, error) {
	link := sel.Find(selTitleLink).First()
	if link.Length() == 0 {
		return tournament.Tournament{}, errors.New("missing title link")
	}
	title := strings.TrimSpace(link.Text())
	href, ok := link.Attr("href")
	if !ok {
		return tournament.Tournament{}, errors.New("title link has no href")
	}

	if IsRingGame(title) {
		return tournament.Tournament{}, errRingGame
	}

	venue := strings.TrimSpace(sel.Find(selVenue).Eq(1).Text())

	timeSel := sel.Find(selTime).First()
	if timeSel.Length() == 0 {
		return tournament.Tournament{}, errors.New("missing time field")
	}
	start, cutoff := splitTimes(timeSel.Text())

	fee := 0
	sel.Find(selFeeCandidate).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if feeMarkerPattern.MatchString(text) {
			fee = extractNumber(text)
			return false
		}
		return true
	})

	current, capacity := 0, 0
	if entries := sel.Find(selEntries).First(); entries.Length() > 0 {
		var ok bool
		current, capacity, ok = parseEntries(entries.Text())
		if !ok {
			logger.Debug("could not parse entry count", logger.Fields{
				"title": title,
				"text":  entries.Text(),
			})
		}
	}

	if !strings.Contains(venue, location) {
		return tournament.Tournament{}, errOutsideLocation
	}

	detailURL := resolveURL(baseURL, href)
	return tournament.Tournament{
		ID:             tournament.GenerateID(detailURL),
		Title:          title,
		Venue:          venue,
		StartTime:      start,
		CutoffTime:     cutoff,
		EntryFee:       fee,
		CurrentEntries: current,
		MaxEntries:     capacity,
		Guarantee:      guarantee.FromTitle(title),
		DetailURL:      detailURL,
	}, nil
}

// IsRingGame reports whether title names a ring game rather than a tournament.
func IsRingGame(title string) bool {
	for _, kw := range RingKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// splitTimes returns the first HH:MM in text as the start and the HH:MM after
// a 〆 or End marker as the cutoff. Either may be empty.
func splitTimes(text string) (start, cutoff string) {
	text = guarantee.Normalize(strings.TrimSpace(text))
	if m := startTimePattern.FindStringSubmatch(text); m != nil {
		start = m[1]
	}
	if m := cutoffTimePattern.FindStringSubmatch(text); m != nil {
		cutoff = m[1]
	}
	return start, cutoff
}

// extractNumber returns the first run of digits in text, ignoring commas.
func extractNumber(text string) int {
	text = strings.ReplaceAll(guarantee.Normalize(text), ",", "")
	m := digitsPattern.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// parseEntries parses "current / max". A blank side counts as zero; any
// other malformed input yields 0, 0, false.
func parseEntries(text string) (current, capacity int, ok bool) {
	parts := strings.Split(guarantee.Normalize(text), "/")
	values := [2]int{}
	for i := 0; i < len(parts) && i < 2; i++ {
		p := strings.TrimSpace(parts[i])
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		values[i] = n
	}
	return values[0], values[1], true
}
