package domain

import (
	"context"
	"time"
)

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) (int, error)
	SetSentiment(ctx context.Context, reviewID string, label Label, score float64, processedAt time.Time) error
	LogCrawl(ctx context.Context, l CrawlLog) error

	// Read paths
	ListUnclassified(ctx context.Context, limit int) ([]Review, error)
	ListReviews(ctx context.Context, q ReviewsQuery) ([]Review, error)
	Summary(ctx context.Context) (Summary, error)
	ListCrawlLogs(ctx context.Context, limit int) ([]CrawlLog, error)
}

// MapReviewSource fetches reviews for one place. Three interchangeable
// strategies implement it: headless browser, managed crawl-task API, and
// paginated search API. Raw payloads keep source field names; the
// normalizer maps them to the canonical record.
type MapReviewSource interface {
	FetchReviews(ctx context.Context, placeURL string, maxReviews int) ([]map[string]any, error)
}

// AppReviewSource fetches app reviews in cursor-paginated batches.
type AppReviewSource interface {
	FetchReviews(ctx context.Context, pkg string, batchSize, maxBatches int) ([]map[string]any, error)
}

// SentimentClassifier is the text-in/label-score-out contract. The raw
// label token is model-specific; mapping to canonical labels happens in
// the classification pipeline.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (label string, score float64, err error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

type ReviewsQuery struct {
	Source *Source
	Label  *Label
	Limit  int
}

type Summary struct {
	Total        int            `json:"total"`
	Unclassified int            `json:"unclassified"`
	ByLabel      map[Label]int  `json:"by_label"`
	BySource     map[Source]int `json:"by_source"`
	AvgRating    *float64       `json:"avg_rating"`
}
