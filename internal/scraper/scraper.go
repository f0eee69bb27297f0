package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/config"
	"github.com/tournament-radar/pokerfans-events/internal/logger"
	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

const (
	BaseURL   = "https://pokerfans.jp/"
	Location  = "東京都"
	PageSize  = 50
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	Timeout   = 30 * time.Second

	// DateLayout is the startDate query format, also used as cache key.
	DateLayout = "2006/01/02"
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Pagination is the navigation state of one listing page.
type Pagination struct {
	CurrentPage int `json:"current_page"` // zero-based
	TotalPages  int `json:"total_pages"`
}

// Page is the result of one listing fetch.
type Page struct {
	Tournaments []tournament.Tournament
	Pagination  Pagination
}

// emptyPage is what callers get back when a fetch fails.
func emptyPage(page int) *Page {
	return &Page{
		Tournaments: []tournament.Tournament{},
		Pagination:  Pagination{CurrentPage: page, TotalPages: 1},
	}
}

// Client fetches listing and detail pages.
type Client struct {
	client      *http.Client
	baseURL     string
	location    string
	listDelay   DelayPolicy
	detailDelay DelayPolicy

	mu      sync.Mutex
	details map[string]int // detail URL → guarantee
}

// New creates a Client with production settings and no delays.
func New() *Client {
	return &Client{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL:  BaseURL,
		location: Location,
		details:  make(map[string]int),
	}
}

// NewFromConfig creates a Client using the endpoint, location, timeout and
// delay bounds from cfg.
func NewFromConfig(cfg *config.Config) *Client {
	c := New()
	c.client.Timeout = cfg.Timeout
	c.baseURL = cfg.BaseURL
	c.location = cfg.Location
	c.listDelay = DelayPolicy{Min: cfg.ListDelay.Min, Max: cfg.ListDelay.Max}
	c.detailDelay = DelayPolicy{Min: cfg.DetailDelay.Min, Max: cfg.DetailDelay.Max}
	return c
}

// SetDelays replaces the list and detail delay policies.
func (c *Client) SetDelays(list, detail DelayPolicy) {
	c.listDelay = list
	c.detailDelay = detail
}

// FormatDate formats d as the listing's startDate parameter.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// listingURL builds the listing request URL for date and page.
func (c *Client) listingURL(date string, page int) string {
	params := url.Values{}
	params.Set("startDate", date)
	params.Set("weekly", "false")
	params.Set("prize", "")
	params.Set("location", c.location)
	params.Set("clubId", "")
	params.Set("withEndTime", "false")
	params.Set("applyEndTime", "")
	params.Set("size", strconv.Itoa(PageSize))
	params.Set("page", strconv.Itoa(page))
	return c.baseURL + "?" + params.Encode()
}

// FetchPage fetches and parses one listing page. date is YYYY/MM/DD and page
// is zero-based.
//
// On any failure the returned page is empty with Pagination{page, 1} and the
// error is non-nil; the failure is meant to be retried later, not escalated.
// The list delay is applied before returning in both cases.
func (c *Client) FetchPage(ctx context.Context, date string, page int) (*Page, error) {
	start := time.Now()
	p, err := c.fetchPage(ctx, date, page)
	logger.RecordTiming("scraper.page", time.Since(start))

	if err != nil {
		logger.IncrCounter("scraper.page_errors")
		p = emptyPage(page)
	}

	_ = c.listDelay.Wait(ctx)
	return p, err
}

func (c *Client) fetchPage(ctx context.Context, date string, page int) (*Page, error) {
	body, err := c.get(ctx, c.listingURL(date, page))
	if err != nil {
		return nil, fmt.Errorf("fetching page %d: %w", page, err)
	}
	defer body.Close()

	p, err := c.parseListing(body, page)
	if err != nil {
		return nil, fmt.Errorf("parsing page %d: %w", page, err)
	}
	return p, nil
}

// get issues a GET with the browser User-Agent and returns the body of a 2xx
// response.
func (c *Client) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	logger.IncrCounter("scraper.requests")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp.Body, nil
}

// resolveURL resolves a listing href against the base URL.
func resolveURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(baseURL, "/") + href
}
