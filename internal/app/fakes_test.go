package app_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"ulasan_sentimen/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu      sync.Mutex
	reviews map[string]domain.Review
	logs    []domain.CrawlLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reviews: map[string]domain.Review{}}
}

func (f *fakeRepo) UpsertReviews(ctx context.Context, rs []domain.Review) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rv := range rs {
		if rv.ReviewID == "" {
			continue
		}
		if old, ok := f.reviews[rv.ReviewID]; ok {
			// content columns refresh, sentiment columns stay untouched
			rv.SentimentLabel = old.SentimentLabel
			rv.SentimentScore = old.SentimentScore
			rv.ProcessedAt = old.ProcessedAt
		}
		f.reviews[rv.ReviewID] = rv
		n++
	}
	return n, nil
}

func (f *fakeRepo) SetSentiment(ctx context.Context, id string, label domain.Label, score float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv, ok := f.reviews[id]
	if !ok || rv.SentimentLabel != nil {
		return nil // same as the SQL IS NULL guard: no-op
	}
	rv.SentimentLabel = &label
	rv.SentimentScore = &score
	rv.ProcessedAt = &at
	f.reviews[id] = rv
	return nil
}

func (f *fakeRepo) LogCrawl(ctx context.Context, l domain.CrawlLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeRepo) ListUnclassified(ctx context.Context, limit int) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for _, rv := range f.reviews {
		if rv.SentimentLabel == nil {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewID < out[j].ReviewID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for _, rv := range f.reviews {
		if q.Source != nil && rv.Source != *q.Source {
			continue
		}
		if q.Label != nil && (rv.SentimentLabel == nil || *rv.SentimentLabel != *q.Label) {
			continue
		}
		out = append(out, rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewID < out[j].ReviewID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeRepo) Summary(ctx context.Context) (domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := domain.Summary{ByLabel: map[domain.Label]int{}, BySource: map[domain.Source]int{}}
	for _, rv := range f.reviews {
		sum.Total++
		sum.BySource[rv.Source]++
		if rv.SentimentLabel == nil {
			sum.Unclassified++
		} else {
			sum.ByLabel[*rv.SentimentLabel]++
		}
	}
	return sum, nil
}

func (f *fakeRepo) ListCrawlLogs(ctx context.Context, limit int) ([]domain.CrawlLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.CrawlLog(nil), f.logs...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) get(id string) (domain.Review, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv, ok := f.reviews[id]
	return rv, ok
}

func (f *fakeRepo) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reviews)
}

type fakeClassifier struct {
	mu     sync.Mutex
	label  string
	score  float64
	calls  int
	inputs []string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, text)
	return f.label, f.score, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMapSource struct {
	raws  []map[string]any
	err   error
	block bool // wait for ctx cancellation instead of returning
	delay time.Duration
}

func (f *fakeMapSource) FetchReviews(ctx context.Context, url string, max int) ([]map[string]any, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.raws) > max {
		return f.raws[:max], nil
	}
	return f.raws, nil
}

type fakePlaySource struct {
	raws []map[string]any
	err  error
}

func (f *fakePlaySource) FetchReviews(ctx context.Context, pkg string, batchSize, maxBatches int) ([]map[string]any, error) {
	return f.raws, f.err
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	dels []string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return false, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, key)
	return nil
}
