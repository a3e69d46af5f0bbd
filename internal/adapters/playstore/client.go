// Package playstore fetches app reviews from a cursor-paginated review
// feed. Batches retry on transient failures with randomized backoff and a
// deliberate throttle runs between batches; the feed rate-limits
// aggressively otherwise.
package playstore

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"ulasan_sentimen/internal/adapters/observability"
)

const maxBatchAttempts = 3

type Client struct {
	client *resty.Client
	lang   string

	retryMin, retryMax time.Duration // backoff between failed attempts
	pauseMin, pauseMax time.Duration // throttle between successful batches
}

func New(base string) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(base, "/"))
	client.SetTimeout(30 * time.Second)
	return &Client{
		client:   client,
		lang:     "id",
		retryMin: 2 * time.Second,
		retryMax: 5 * time.Second,
		pauseMin: 1500 * time.Millisecond,
		pauseMax: 3 * time.Second,
	}
}

// WithDelays overrides the backoff and throttle windows; tests use tiny values.
func (c *Client) WithDelays(retryMin, retryMax, pauseMin, pauseMax time.Duration) *Client {
	c.retryMin, c.retryMax = retryMin, retryMax
	c.pauseMin, c.pauseMax = pauseMin, pauseMax
	return c
}

type reviewPage struct {
	Reviews   []map[string]any `json:"reviews"`
	NextToken string           `json:"nextToken"`
}

// FetchReviews iterates batches until the continuation cursor is exhausted
// or maxBatches is reached. A batch that exhausts its retries ends the
// fetch early with whatever accumulated so far; partial results are not an
// error.
func (c *Client) FetchReviews(ctx context.Context, pkg string, batchSize, maxBatches int) ([]map[string]any, error) {
	var all []map[string]any
	cursor := ""

	for loops := 0; loops < maxBatches; loops++ {
		page, err := c.fetchBatch(ctx, pkg, batchSize, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			log.Warn().Str("package", pkg).Int("batch", loops+1).Err(err).
				Msg("batch retries exhausted, returning partial results")
			return all, nil
		}
		all = append(all, page.Reviews...)
		log.Debug().Int("batch", loops+1).Int("collected", len(all)).Msg("batch fetched")

		if page.NextToken == "" {
			break
		}
		cursor = page.NextToken

		// Mandatory throttle between batches.
		if !sleepCtx(ctx, jitter(c.pauseMin, c.pauseMax)) {
			return all, ctx.Err()
		}
	}
	return all, nil
}

func (c *Client) fetchBatch(ctx context.Context, pkg string, batchSize int, cursor string) (reviewPage, error) {
	var lastErr error
	for attempt := 1; attempt <= maxBatchAttempts; attempt++ {
		var page reviewPage
		start := time.Now()
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"package": pkg,
				"lang":    c.lang,
				"count":   strconv.Itoa(batchSize),
				"token":   cursor,
			}).
			SetResult(&page).
			Get("/reviews")
		status := 0
		if err == nil {
			status = resp.StatusCode()
		}
		observability.ObserveExternal("playstore", "reviews", status, time.Since(start))

		switch {
		case err != nil:
			lastErr = err
		case resp.IsError():
			lastErr = fmt.Errorf("playstore: status %d", resp.StatusCode())
		default:
			return page, nil
		}

		if attempt < maxBatchAttempts {
			if !sleepCtx(ctx, jitter(c.retryMin, c.retryMax)) {
				return reviewPage{}, ctx.Err()
			}
		}
	}
	return reviewPage{}, lastErr
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Float64()*float64(max-min))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
