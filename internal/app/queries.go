package app

import (
	"context"
	"fmt"
	"time"

	"ulasan_sentimen/internal/domain"
)

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func reviewsKey(q domain.ReviewsQuery) string {
	src, label := "all", "all"
	if q.Source != nil {
		src = string(*q.Source)
	}
	if q.Label != nil {
		label = string(*q.Label)
	}
	return fmt.Sprintf("reviews:%s:%s:%d", src, label, q.Limit)
}

func (s *QueryService) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	key := reviewsKey(q)
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rs, err := s.repo.ListReviews(ctx, q)
	if err != nil {
		return nil, err
	}
	// copy to avoid aliasing the repo's backing array in the cached value
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func (s *QueryService) Summary(ctx context.Context) (domain.Summary, error) {
	var out domain.Summary
	if ok, _ := s.cache.Get(ctx, "summary", &out); ok {
		return out, nil
	}
	sum, err := s.repo.Summary(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	_ = s.cache.Set(ctx, "summary", sum, int(s.cacheTTL.Seconds()))
	return sum, nil
}

// Crawl logs are an audit trail; serve them straight from the store.
func (s *QueryService) ListCrawlLogs(ctx context.Context, limit int) ([]domain.CrawlLog, error) {
	return s.repo.ListCrawlLogs(ctx, limit)
}
