package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/config"
)

func newTestClient(serverURL string) *Client {
	c := New()
	c.baseURL = serverURL + "/"
	return c
}

func TestFetchPage(t *testing.T) {
	fixture, err := os.ReadFile("testdata/listing.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	tests := []struct {
		name           string
		body           string
		statusCode     int
		wantError      bool
		wantStatusErr  bool
		wantCount      int
		wantPagination Pagination
	}{
		{
			name:           "successful fetch",
			body:           string(fixture),
			statusCode:     http.StatusOK,
			wantCount:      3,
			wantPagination: Pagination{CurrentPage: 0, TotalPages: 3},
		},
		{
			name:           "HTTP error",
			statusCode:     http.StatusServiceUnavailable,
			wantError:      true,
			wantStatusErr:  true,
			wantPagination: Pagination{CurrentPage: 2, TotalPages: 1},
		},
		{
			name:           "not found",
			statusCode:     http.StatusNotFound,
			wantError:      true,
			wantStatusErr:  true,
			wantPagination: Pagination{CurrentPage: 2, TotalPages: 1},
		},
		{
			name:           "empty page",
			body:           `<html><body><p>No events</p></body></html>`,
			statusCode:     http.StatusOK,
			wantPagination: Pagination{CurrentPage: 2, TotalPages: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
					t.Errorf("User-Agent = %q, should be a browser string", ua)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			page, err := newTestClient(server.URL).FetchPage(context.Background(), "2026/03/27", 2)

			if tt.wantError {
				if err == nil {
					t.Error("FetchPage() expected error, got nil")
				}
				if tt.wantStatusErr && !errors.Is(err, ErrUnexpectedStatus) {
					t.Errorf("error %v should wrap ErrUnexpectedStatus", err)
				}
			} else if err != nil {
				t.Errorf("FetchPage() unexpected error: %v", err)
			}

			if page == nil {
				t.Fatal("FetchPage() returned a nil page")
			}
			if len(page.Tournaments) != tt.wantCount {
				t.Errorf("FetchPage() returned %d tournaments, want %d", len(page.Tournaments), tt.wantCount)
			}
			if page.Pagination != tt.wantPagination {
				t.Errorf("pagination = %+v, want %+v", page.Pagination, tt.wantPagination)
			}
		})
	}
}

func TestFetchPage_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"startDate":    "2026/03/27",
			"weekly":       "false",
			"prize":        "",
			"location":     "東京都",
			"clubId":       "",
			"withEndTime":  "false",
			"applyEndTime": "",
			"size":         "50",
			"page":         "4",
		}
		for k, v := range want {
			got, ok := q[k]
			if !ok {
				t.Errorf("query parameter %s missing", k)
				continue
			}
			if got[0] != v {
				t.Errorf("query parameter %s = %q, want %q", k, got[0], v)
			}
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchPage(context.Background(), "2026/03/27", 4); err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
}

func TestFetchPage_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	page, err := newTestClient(url).FetchPage(context.Background(), "2026/03/27", 1)
	if err == nil {
		t.Fatal("FetchPage() expected error for closed server")
	}
	if page == nil || len(page.Tournaments) != 0 {
		t.Fatalf("expected an empty page, got %+v", page)
	}
	if page.Pagination != (Pagination{CurrentPage: 1, TotalPages: 1}) {
		t.Errorf("pagination = %+v, want default", page.Pagination)
	}
}

func TestFetchPage_AppliesListDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.SetDelays(DelayPolicy{Min: 30 * time.Millisecond, Max: 30 * time.Millisecond}, DelayPolicy{})

	start := time.Now()
	if _, err := c.FetchPage(context.Background(), "2026/03/27", 0); err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("FetchPage() returned after %v, want at least the list delay", elapsed)
	}
}

func TestFetchGuarantee(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/tournament/1":
			w.Write([]byte(`<html><body><pre class="pre-white">エントリー 5,000円
本大会は30万円保証です</pre></body></html>`))
		case "/tournament/2":
			w.Write([]byte(`<html><body><pre class="pre-white">40万コイン</pre></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()

	t.Run("strict table and cache", func(t *testing.T) {
		hits.Store(0)
		for i := 0; i < 2; i++ {
			got, err := c.FetchGuarantee(ctx, server.URL+"/tournament/1")
			if err != nil {
				t.Fatalf("FetchGuarantee() error: %v", err)
			}
			if got != 300000 {
				t.Errorf("FetchGuarantee() = %d, want 300000", got)
			}
		}
		if hits.Load() != 1 {
			t.Errorf("server hits = %d, want 1 (second call cached)", hits.Load())
		}
	})

	t.Run("no guarantee marker", func(t *testing.T) {
		got, err := c.FetchGuarantee(ctx, server.URL+"/tournament/2")
		if err != nil || got != 0 {
			t.Errorf("FetchGuarantee() = %d, %v; want 0, nil", got, err)
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		hits.Store(0)
		for i := 0; i < 2; i++ {
			got, err := c.FetchGuarantee(ctx, server.URL+"/missing")
			if !errors.Is(err, ErrUnexpectedStatus) {
				t.Errorf("error = %v, want ErrUnexpectedStatus", err)
			}
			if got != 0 {
				t.Errorf("FetchGuarantee() = %d, want 0", got)
			}
		}
		if hits.Load() != 2 {
			t.Errorf("server hits = %d, want 2", hits.Load())
		}
	})
}

func TestNew(t *testing.T) {
	s := New()

	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.client == nil {
		t.Error("scraper client is nil")
	}
	if s.client.Timeout != Timeout {
		t.Errorf("timeout = %v, want %v", s.client.Timeout, Timeout)
	}
	if s.baseURL != BaseURL {
		t.Errorf("scraper url = %q, want %q", s.baseURL, BaseURL)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BaseURL = "http://localhost:9999/"
	cfg.Location = "大阪府"
	cfg.Timeout = 5 * time.Second

	c := NewFromConfig(cfg)
	if c.baseURL != cfg.BaseURL || c.location != cfg.Location {
		t.Errorf("client = %q / %q", c.baseURL, c.location)
	}
	if c.client.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", c.client.Timeout)
	}
	if c.listDelay.Min != 5*time.Second || c.listDelay.Max != 10*time.Second {
		t.Errorf("list delay = %+v", c.listDelay)
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "2026/03/07" {
		t.Errorf("FormatDate() = %q, want 2026/03/07", got)
	}
}
