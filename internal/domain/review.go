package domain

import (
	"errors"
	"time"
)

// Source identifies where a review was collected from.
type Source string

const (
	SourceGMaps     Source = "gmaps"
	SourcePlayStore Source = "playstore"
)

// Label is a canonical sentiment label. Raw classifier tokens (including
// ordinal placeholders like "label_0") are mapped to one of these three.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Review is the canonical, source-independent shape of one review.
// Sentiment fields are either all nil (unclassified) or all set.
type Review struct {
	ReviewID       string     `json:"review_id"`
	Source         Source     `json:"source"`
	Username       *string    `json:"username"`
	CommentText    *string    `json:"comment_text"`
	Rating         *int       `json:"rating"`
	CreatedAt      *time.Time `json:"created_at"`
	SentimentLabel *Label     `json:"sentimen_label"`
	SentimentScore *float64   `json:"sentiment_score"`
	ProcessedAt    *time.Time `json:"processed_at"`
}

// Classified reports whether the sentiment pipeline already labeled this
// review. Classification is terminal; classified records are never revisited.
func (r Review) Classified() bool { return r.SentimentLabel != nil }

// CrawlLog is one append-only audit entry per completed run per source.
type CrawlLog struct {
	ID          int64     `json:"id"`
	Target      string    `json:"target"` // place key or app package
	Source      Source    `json:"source"`
	Status      string    `json:"status"` // success|partial|error
	ReviewCount *int      `json:"review_count"`
	ErrorMsg    *string   `json:"error_msg"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	CrawlStatusSuccess = "success"
	CrawlStatusPartial = "partial"
	CrawlStatusError   = "error"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrRunInProgress = errors.New("crawl run already in progress")
	// ErrFetchTimeout marks a fetch aborted by its wall-clock deadline.
	ErrFetchTimeout = errors.New("fetch timed out")
)
