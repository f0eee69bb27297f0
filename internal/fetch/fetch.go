// Package fetch aggregates every listing page of a date into one ordered
// tournament list.
//
// Page 0 is fetched first to learn the page count. The remaining pages are
// fetched in batches by a bounded worker pool with a pause between batches.
// Every page goes through the page cache, so running FetchAll twice for the
// same date without a Refresh hits the network only once per page. Failed
// pages are logged, contribute no tournaments and are retried on the next run.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tournament-radar/pokerfans-events/internal/cache"
	"github.com/tournament-radar/pokerfans-events/internal/config"
	"github.com/tournament-radar/pokerfans-events/internal/logger"
	"github.com/tournament-radar/pokerfans-events/internal/scraper"
	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

// PageFetcher fetches one listing page. A failed fetch still returns a page
// (empty, single-page pagination) alongside the error.
type PageFetcher interface {
	FetchPage(ctx context.Context, date string, page int) (*scraper.Page, error)
}

// GuaranteeFetcher reads a guarantee from a tournament's detail page.
type GuaranteeFetcher interface {
	FetchGuarantee(ctx context.Context, detailURL string) (int, error)
}

// Progress describes one completed page.
type Progress struct {
	RunID       string
	Page        int
	TotalPages  int
	Completed   int // pages finished so far in this run, including this one
	Tournaments int
	Cached      bool
	Err         error
}

// Options tunes the worker pool and pacing.
type Options struct {
	Workers        int
	BatchPause     time.Duration
	FirstPagePause time.Duration
}

// Orchestrator runs aggregation passes against a shared page cache.
type Orchestrator struct {
	pages   PageFetcher
	details GuaranteeFetcher
	cache   *cache.PageCache
	opts    Options

	// OnProgress, if set, is called once per page. Calls never overlap.
	OnProgress func(Progress)

	progressMu sync.Mutex
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates an Orchestrator. details may be nil, which disables detail
// refinement regardless of maxDetailsPerPage.
func New(pages PageFetcher, details GuaranteeFetcher, c *cache.PageCache, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = config.DefaultWorkers
	}
	return &Orchestrator{
		pages:   pages,
		details: details,
		cache:   c,
		opts:    opts,
		sleep:   sleep,
	}
}

// NewFromConfig wires a scraper client and cache with the pacing from cfg.
func NewFromConfig(cfg *config.Config, client *scraper.Client, c *cache.PageCache) *Orchestrator {
	return New(client, client, c, Options{
		Workers:        cfg.Workers,
		BatchPause:     cfg.BatchPause,
		FirstPagePause: cfg.FirstPagePause,
	})
}

// Cache returns the page cache backing this orchestrator.
func (o *Orchestrator) Cache() *cache.PageCache {
	return o.cache
}

// pageResult is what a single page contributes to a run.
type pageResult struct {
	tournaments []tournament.Tournament
	totalPages  int
	cached      bool
	err         error
}

// FetchAll returns the tournaments of every listing page for date, in page
// order. Per-page failures never fail the run; the returned error is only
// non-nil when ctx was cancelled, in which case whatever was collected is
// still returned.
//
// maxDetailsPerPage > 0 asks the detail fetcher for up to that many
// tournaments per freshly fetched page whose title carried no guarantee.
func (o *Orchestrator) FetchAll(ctx context.Context, date string, maxDetailsPerPage int) ([]tournament.Tournament, error) {
	runID := uuid.NewString()
	start := time.Now()
	epoch := o.cache.Epoch()

	logger.Debug("starting aggregation", logger.Fields{
		"run_id": runID,
		"date":   date,
		"epoch":  epoch,
	})

	completed := 0
	first := o.fetchPage(ctx, epoch, date, 0, maxDetailsPerPage)
	total := max(first.totalPages, 1)
	o.report(runID, &completed, 0, total, first)

	results := make([][]tournament.Tournament, total)
	results[0] = first.tournaments

	hitNetwork := !first.cached
	if total > 1 && hitNetwork {
		if err := o.sleep(ctx, o.opts.FirstPagePause); err != nil {
			return flatten(results), err
		}
	}

	workers := o.opts.Workers
	for batchStart := 1; batchStart < total; batchStart += workers {
		if batchStart > 1 && hitNetwork {
			if err := o.sleep(ctx, o.opts.BatchPause); err != nil {
				return flatten(results), err
			}
		}
		batchEnd := min(batchStart+workers, total)

		var (
			g      errgroup.Group
			mu     sync.Mutex
			missed bool
		)
		g.SetLimit(workers)
		for page := batchStart; page < batchEnd; page++ {
			g.Go(func() error {
				r := o.fetchPage(ctx, epoch, date, page, maxDetailsPerPage)
				results[page] = r.tournaments
				if !r.cached {
					mu.Lock()
					missed = true
					mu.Unlock()
				}
				o.report(runID, &completed, page, total, r)
				return nil
			})
		}
		_ = g.Wait()
		hitNetwork = missed
	}

	merged := flatten(results)
	elapsed := time.Since(start)
	logger.RecordTiming("fetch.all", elapsed)
	logger.SetGauge("cache.pages", float64(o.cache.Len()))
	logger.Info("aggregation complete", logger.Fields{
		"run_id":      runID,
		"date":        date,
		"pages":       total,
		"tournaments": len(merged),
		"duration_ms": elapsed.Milliseconds(),
	})

	return merged, ctx.Err()
}

// Refresh drops every cached page and aggregates date from scratch.
func (o *Orchestrator) Refresh(ctx context.Context, date string, maxDetailsPerPage int) ([]tournament.Tournament, error) {
	o.cache.InvalidateAll()
	logger.IncrCounter("fetch.refreshes")
	return o.FetchAll(ctx, date, maxDetailsPerPage)
}

// fetchPage serves one page from the cache or the network. Successful network
// results are stored under the run's epoch.
func (o *Orchestrator) fetchPage(ctx context.Context, epoch uint64, date string, page, maxDetails int) pageResult {
	key := cache.Key{Date: date, Page: page}
	if entry, ok := o.cache.Get(key); ok {
		logger.IncrCounter("pages.cached")
		return pageResult{tournaments: entry.Tournaments, totalPages: entry.TotalPages, cached: true}
	}

	start := time.Now()
	p, err := o.pages.FetchPage(ctx, date, page)
	logger.RecordTiming("fetch.page", time.Since(start))

	if err != nil {
		logger.IncrCounter("pages.failed")
		total := 1
		if p != nil {
			total = p.Pagination.TotalPages
		}
		return pageResult{tournaments: []tournament.Tournament{}, totalPages: total, err: err}
	}

	ts := p.Tournaments
	if maxDetails > 0 && o.details != nil {
		ts = o.refine(ctx, ts, maxDetails)
		// Refinement may have stopped early; do not cache a partial page.
		if ctx.Err() != nil {
			return pageResult{tournaments: ts, totalPages: p.Pagination.TotalPages}
		}
	}

	o.cache.PutAt(epoch, key, cache.Entry{
		Tournaments: ts,
		TotalPages:  p.Pagination.TotalPages,
	})
	logger.IncrCounter("pages.fetched")

	return pageResult{tournaments: ts, totalPages: p.Pagination.TotalPages}
}

// refine fills in guarantees from detail pages for up to limit tournaments
// whose title carried none.
func (o *Orchestrator) refine(ctx context.Context, ts []tournament.Tournament, limit int) []tournament.Tournament {
	out := append([]tournament.Tournament(nil), ts...)
	asked := 0
	for i := range out {
		if asked >= limit {
			break
		}
		if out[i].Guarantee > 0 || out[i].DetailURL == "" {
			continue
		}
		asked++

		amount, err := o.details.FetchGuarantee(ctx, out[i].DetailURL)
		if err != nil {
			logger.Debug("detail lookup failed", logger.Fields{
				"url":   out[i].DetailURL,
				"error": err.Error(),
			})
			continue
		}
		if amount > 0 {
			out[i].Guarantee = amount
			logger.IncrCounter("details.refined")
		}
	}
	return out
}

// report logs a failed page and forwards progress. completed is owned by the
// calling run and only touched under progressMu.
func (o *Orchestrator) report(runID string, completed *int, page, total int, r pageResult) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()

	*completed++
	if r.err != nil {
		logger.Warn("page fetch failed", logger.Fields{
			"run_id": runID,
			"page":   page + 1,
			"total":  total,
			"error":  r.err.Error(),
		})
	}
	if o.OnProgress == nil {
		return
	}
	o.OnProgress(Progress{
		RunID:       runID,
		Page:        page,
		TotalPages:  total,
		Completed:   *completed,
		Tournaments: len(r.tournaments),
		Cached:      r.cached,
		Err:         r.err,
	})
}

func flatten(pages [][]tournament.Tournament) []tournament.Tournament {
	out := make([]tournament.Tournament, 0)
	for _, ts := range pages {
		out = append(out, ts...)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	return scraper.DelayPolicy{Min: d, Max: d}.Wait(ctx)
}

// IsCancelled reports whether err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
