package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tournament-radar/pokerfans-events/internal/cache"
	"github.com/tournament-radar/pokerfans-events/internal/calendar"
	"github.com/tournament-radar/pokerfans-events/internal/classify"
	"github.com/tournament-radar/pokerfans-events/internal/config"
	"github.com/tournament-radar/pokerfans-events/internal/fetch"
	"github.com/tournament-radar/pokerfans-events/internal/logger"
	"github.com/tournament-radar/pokerfans-events/internal/scraper"
	"github.com/tournament-radar/pokerfans-events/internal/storage"
	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

const (
	ExitSuccess        = 0
	ExitError          = 1
	ExitNewTournaments = 2
)

// SnapshotRetention is how long per-date snapshots are kept.
const SnapshotRetention = 30 * 24 * time.Hour

var errNewTournaments = errors.New("new tournaments found")

var (
	flagDate          string
	flagSort          string
	flagFormat        string
	flagDataDir       string
	flagICS           string
	flagShow          string
	flagAvailableOnly bool
	flagNewOnly       bool
	flagVerbose       bool
	flagDetails       int
	flagWatch         time.Duration
	flagRefreshEvery  time.Duration
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pokerfans-events",
		Short: "List today's poker tournaments in Tokyo from pokerfans.jp",
		Long: `A CLI tool that aggregates every pokerfans.jp tournament listing page for a
date, shows which tournaments can still be entered and ranks them by start
time or by how generous the guarantee is relative to the entries so far.

Settings are read from POKERFANS_* environment variables or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runCheck,
	}

	// Define flags
	cmd.Flags().StringVar(&flagDate, "date", "", "Listing date as YYYY/MM/DD (default today in the configured timezone)")
	cmd.Flags().StringVar(&flagSort, "sort", string(classify.OrderTime), "Sort order: time or value")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", config.DefaultDataDir, "Data directory for snapshots (overrides POKERFANS_DATA_DIR)")
	cmd.Flags().StringVar(&flagICS, "ics", "", "Also write the listed tournaments to this .ics file")
	cmd.Flags().StringVar(&flagShow, "show", "", "Show one stored tournament by ID without fetching")
	cmd.Flags().BoolVar(&flagAvailableOnly, "available-only", false, "Only show tournaments that can still be entered")
	cmd.Flags().BoolVar(&flagNewOnly, "new-only", false, "Only show tournaments not seen on a previous run (exit code 2 when any)")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	cmd.Flags().IntVar(&flagDetails, "details", 0, "Read guarantees from up to N detail pages per listing page when the title has none")
	cmd.Flags().DurationVar(&flagWatch, "watch", 0, "Keep running and re-render at this interval")
	cmd.Flags().DurationVar(&flagRefreshEvery, "refresh-every", time.Hour, "In watch mode, re-fetch all pages at this interval")

	return cmd
}

// checker runs one aggregation and renders it. Watch mode reuses it so the
// page cache survives between renders.
type checker struct {
	cfg    *config.Config
	orch   *fetch.Orchestrator
	store  *storage.Storage
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	date          string
	day           time.Time
	order         classify.Order
	format        OutputFormat
	availableOnly bool
	newOnly       bool
	verbose       bool
	details       int
	icsPath       string

	failed int
}

// runCheck is the main command logic
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}

	level := cfg.LogLevel
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	// Validate format
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	order, err := classify.ParseOrder(flagSort)
	if err != nil {
		return err
	}
	if flagDetails < 0 {
		return fmt.Errorf("--details must not be negative")
	}
	if flagWatch < 0 || flagRefreshEvery < 0 {
		return fmt.Errorf("--watch and --refresh-every must not be negative")
	}
	if flagShow != "" && flagWatch > 0 {
		return fmt.Errorf("--show cannot be combined with --watch")
	}

	day, err := parseDate(flagDate, time.Now(), cfg.Timezone)
	if err != nil {
		return err
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	store, err := storage.New(dataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	client := scraper.NewFromConfig(cfg)
	c := &checker{
		cfg:           cfg,
		orch:          fetch.NewFromConfig(cfg, client, cache.New()),
		store:         store,
		out:           cmd.OutOrStdout(),
		errOut:        cmd.ErrOrStderr(),
		now:           time.Now,
		date:          scraper.FormatDate(day),
		day:           day,
		order:         order,
		format:        format,
		availableOnly: flagAvailableOnly,
		newOnly:       flagNewOnly,
		verbose:       flagVerbose,
		details:       flagDetails,
		icsPath:       flagICS,
	}
	c.orch.OnProgress = c.progress

	if flagVerbose {
		fmt.Fprintf(c.errOut, "Checking date: %s\n", c.date)
		fmt.Fprintf(c.errOut, "Data directory: %s\n", store.Dir())
	}
	if flagShow != "" {
		return c.show(flagShow)
	}
	if flagVerbose {
		fmt.Fprintf(c.errOut, "Fetching from %s (location %s)\n", cfg.BaseURL, cfg.Location)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagWatch > 0 {
		return c.watch(ctx, flagWatch, flagRefreshEvery)
	}

	newCount, err := c.check(ctx, false)
	if err != nil {
		return err
	}
	if c.newOnly && newCount > 0 {
		return errNewTournaments
	}
	return nil
}

// check aggregates, diffs against the stored snapshot, renders and returns
// the number of tournaments not seen before.
func (c *checker) check(ctx context.Context, refresh bool) (int, error) {
	c.failed = 0

	var (
		ts  []tournament.Tournament
		err error
	)
	if refresh {
		ts, err = c.orch.Refresh(ctx, c.date, c.details)
	} else {
		ts, err = c.orch.FetchAll(ctx, c.date, c.details)
	}
	if err != nil {
		return 0, fmt.Errorf("fetching tournaments: %w", err)
	}

	previous, err := c.store.LoadSnapshot(c.date)
	if err != nil {
		return 0, fmt.Errorf("loading snapshot: %w", err)
	}
	diff := tournament.Diff(previous, ts)

	// Keep tournaments from earlier runs so a failed page does not make them
	// look new next time. Current listings come last and win.
	merged := make([]tournament.Tournament, 0, len(previous.Tournaments)+len(ts))
	for _, t := range previous.Tournaments {
		merged = append(merged, t)
	}
	merged = append(merged, ts...)
	if err := c.store.SaveTournaments(c.date, merged); err != nil {
		return 0, fmt.Errorf("saving snapshot: %w", err)
	}
	c.prune()

	now := c.now().In(c.cfg.Timezone)
	shown := ts
	if c.newOnly {
		shown = diff.New
	}
	res := classify.Partition(shown, now, c.order)
	if c.availableOnly {
		res = res.AvailableOnly()
	}

	result := &OutputResult{
		Date:        c.date,
		CheckedAt:   now,
		Order:       c.order,
		Standard:    res.Standard,
		Jopt:        res.Jopt,
		Count:       res.Len(),
		NewCount:    len(diff.New),
		NewOnly:     c.newOnly,
		FailedPages: c.failed,
	}
	if !c.newOnly {
		result.Changes = diff.Changes
	}
	if last, ok := c.orch.Cache().LastFetched(c.date); ok {
		result.LastUpdated = last.In(c.cfg.Timezone)
	}

	if err := WriteOutput(c.out, result, c.format, c.verbose); err != nil {
		return 0, fmt.Errorf("writing output: %w", err)
	}

	if c.icsPath != "" {
		if err := c.writeICS(res, now); err != nil {
			return 0, err
		}
	}

	c.logMetrics()
	return len(diff.New), nil
}

// show renders one tournament from the stored snapshot of the date.
func (c *checker) show(id string) error {
	t, err := c.store.GetTournamentByID(c.date, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no tournament %s stored for %s; run without --show first", id, c.date)
	}
	if err != nil {
		return err
	}

	now := c.now().In(c.cfg.Timezone)
	res := classify.Partition([]tournament.Tournament{t}, now, c.order)
	result := &OutputResult{
		Date:      c.date,
		CheckedAt: now,
		Order:     c.order,
		Standard:  res.Standard,
		Jopt:      res.Jopt,
		Count:     res.Len(),
	}
	if err := WriteOutput(c.out, result, c.format, c.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (c *checker) logMetrics() {
	if !logger.Default().Enabled(logger.LevelDebug) {
		return
	}
	logger.Debug("run metrics", logger.Fields{
		"date":    c.date,
		"metrics": logger.GetMetricsSnapshot(),
	})
}

// watch renders every interval. Renders between refreshes are served from
// the page cache, so only classification changes.
func (c *checker) watch(ctx context.Context, every, refreshEvery time.Duration) error {
	lastRefresh := c.now()
	if _, err := c.check(ctx, false); err != nil {
		if fetch.IsCancelled(err) {
			return nil
		}
		return err
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		refresh := refreshEvery > 0 && c.now().Sub(lastRefresh) >= refreshEvery
		if refresh {
			lastRefresh = c.now()
		}
		if _, err := c.check(ctx, refresh); err != nil {
			if fetch.IsCancelled(err) {
				return nil
			}
			logger.Error("check failed", logger.Fields{"date": c.date, "refresh": refresh}, err)
		}
	}
}

// progress is called serially by the orchestrator.
func (c *checker) progress(p fetch.Progress) {
	if p.Err != nil {
		c.failed++
	}
	if !c.verbose {
		return
	}
	source := "fetched"
	if p.Cached {
		source = "cached"
	}
	fmt.Fprintf(c.errOut, "Page %d/%d (%d done): %d tournaments, %s\n",
		p.Page+1, p.TotalPages, p.Completed, p.Tournaments, source)
}

func (c *checker) writeICS(res classify.Result, now time.Time) error {
	ts := make([]tournament.Tournament, 0, res.Len())
	for _, section := range [][]classify.Entry{res.Standard, res.Jopt} {
		for _, e := range section {
			ts = append(ts, e.Tournament)
		}
	}

	content := calendar.GenerateICS(ts, c.day, "Pokerfans "+c.date, now)
	if content == "" {
		logger.Warn("no tournaments with a start time to export", logger.Fields{"path": c.icsPath})
		return nil
	}
	if err := os.WriteFile(c.icsPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	if c.verbose {
		fmt.Fprintf(c.errOut, "Wrote %d tournaments to %s\n", len(ts), c.icsPath)
	}
	return nil
}

// prune drops snapshots older than SnapshotRetention. Failures only warn.
func (c *checker) prune() {
	cutoff := scraper.FormatDate(c.day.Add(-SnapshotRetention))
	removed, err := c.store.Prune(cutoff)
	if err != nil {
		logger.Warn("pruning snapshots failed", logger.Fields{"error": err.Error()})
		return
	}
	if removed > 0 {
		logger.Debug("pruned snapshots", logger.Fields{"removed": removed, "before": cutoff})
	}
}

// parseDate reads YYYY/MM/DD (or YYYY-MM-DD) in loc. An empty string means
// the current day in loc.
func parseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
	}
	for _, layout := range []string{scraper.DateLayout, "2006-01-02"} {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY/MM/DD)", s)
}

// Run executes the root command with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errNewTournaments):
		return ExitNewTournaments
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
