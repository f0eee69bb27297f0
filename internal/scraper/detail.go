package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tournament-radar/pokerfans-events/internal/guarantee"
	"github.com/tournament-radar/pokerfans-events/internal/logger"
)

// FetchGuarantee reads the guarantee from a tournament's detail page using the
// strict detail table. Successful lookups, including a result of 0, are cached
// per URL; failures return 0 and are retried on the next call.
func (c *Client) FetchGuarantee(ctx context.Context, detailURL string) (int, error) {
	c.mu.Lock()
	if amount, ok := c.details[detailURL]; ok {
		c.mu.Unlock()
		logger.IncrCounter("scraper.detail_cache_hits")
		return amount, nil
	}
	c.mu.Unlock()

	amount, err := c.fetchGuarantee(ctx, detailURL)
	_ = c.detailDelay.Wait(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.details[detailURL] = amount
	c.mu.Unlock()
	return amount, nil
}

func (c *Client) fetchGuarantee(ctx context.Context, detailURL string) (int, error) {
	body, err := c.get(ctx, detailURL)
	if err != nil {
		return 0, fmt.Errorf("fetching detail page: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return 0, fmt.Errorf("parsing detail page: %w", err)
	}

	text := doc.Find("pre.pre-white").First().Text()
	return guarantee.FromDetail(strings.TrimSpace(text)), nil
}
