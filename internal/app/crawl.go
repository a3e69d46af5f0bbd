package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"ulasan_sentimen/internal/adapters/observability"
	"ulasan_sentimen/internal/domain"
)

// CrawlService runs one crawl-and-classify pass: each enabled source runs
// to completion, new records land with null sentiment, then one
// classification pass labels whatever is pending. Sources run sequentially
// and at most one run executes at a time.
type CrawlService struct {
	gmaps    domain.MapReviewSource
	play     domain.AppReviewSource
	repo     domain.ReviewRepository
	cache    domain.Cache
	classify *ClassifyService
	gate     *semaphore.Weighted
}

func NewCrawlService(g domain.MapReviewSource, p domain.AppReviewSource, r domain.ReviewRepository, cache domain.Cache, cls *ClassifyService) *CrawlService {
	return &CrawlService{
		gmaps:    g,
		play:     p,
		repo:     r,
		cache:    cache,
		classify: cls,
		gate:     semaphore.NewWeighted(1),
	}
}

type RunOptions struct {
	GMapsURL     string
	PlayPackage  string
	MaxReviews   int
	BatchSize    int
	MaxBatches   int
	GMapsTimeout time.Duration
}

type SourceReport struct {
	Source  domain.Source `json:"source"`
	Status  string        `json:"status"`
	Fetched int           `json:"fetched"`
	Saved   int           `json:"saved"`
	Error   string        `json:"error,omitempty"`
}

type RunReport struct {
	Sources    []SourceReport `json:"sources"`
	Classified int            `json:"classified"`
}

// Run executes one full pass. A second concurrent call gets
// domain.ErrRunInProgress instead of interleaving with the first.
func (s *CrawlService) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	if !s.gate.TryAcquire(1) {
		return RunReport{}, domain.ErrRunInProgress
	}
	defer s.gate.Release(1)
	return s.run(ctx, opts)
}

// StartAsync kicks off a run in the background, holding the single-run
// gate for its whole duration. It reports ErrRunInProgress immediately
// when a run is already in flight; results land in the crawl logs.
func (s *CrawlService) StartAsync(opts RunOptions) error {
	if !s.gate.TryAcquire(1) {
		return domain.ErrRunInProgress
	}
	go func() {
		defer s.gate.Release(1)
		if _, err := s.run(context.Background(), opts); err != nil {
			log.Error().Err(err).Msg("background crawl run failed")
		}
	}()
	return nil
}

func (s *CrawlService) run(ctx context.Context, opts RunOptions) (RunReport, error) {
	var report RunReport

	if opts.GMapsURL != "" && s.gmaps != nil {
		report.Sources = append(report.Sources, s.runGMaps(ctx, opts))
	}
	if opts.PlayPackage != "" && s.play != nil {
		report.Sources = append(report.Sources, s.runPlayStore(ctx, opts))
	}

	if len(report.Sources) == 0 {
		log.Warn().Msg("no sources configured, skipping run")
		return report, nil
	}

	n, err := s.classify.Run(ctx)
	if err != nil {
		// Ingestion already landed; surface the classification failure but
		// keep the report so the caller can see what was saved.
		return report, fmt.Errorf("classification pass: %w", err)
	}
	report.Classified = n

	s.invalidateDashboards(ctx)
	return report, nil
}

func (s *CrawlService) runGMaps(ctx context.Context, opts RunOptions) SourceReport {
	fctx := ctx
	if opts.GMapsTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, opts.GMapsTimeout)
		defer cancel()
	}

	start := time.Now()
	raws, err := s.gmaps.FetchReviews(fctx, opts.GMapsURL, opts.MaxReviews)
	rep := s.persistSource(ctx, domain.SourceGMaps, ExtractPlaceKey(opts.GMapsURL), raws, fetchErr(err), start)
	return rep
}

func (s *CrawlService) runPlayStore(ctx context.Context, opts RunOptions) SourceReport {
	start := time.Now()
	raws, err := s.play.FetchReviews(ctx, opts.PlayPackage, opts.BatchSize, opts.MaxBatches)
	return s.persistSource(ctx, domain.SourcePlayStore, opts.PlayPackage, raws, err, start)
}

// fetchErr folds a context deadline into the distinguishable timeout kind.
func fetchErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrFetchTimeout, err)
	}
	return err
}

// persistSource normalizes, upserts and writes the audit log entry for one
// source. A failed or empty fetch is recorded and the run continues; it
// never aborts the other source or the classification pass.
func (s *CrawlService) persistSource(ctx context.Context, src domain.Source, target string, raws []map[string]any, err error, start time.Time) SourceReport {
	rep := SourceReport{Source: src, Fetched: len(raws)}
	entry := domain.CrawlLog{
		Target:    target,
		Source:    src,
		CreatedAt: time.Now().UTC(),
	}

	switch {
	case err != nil:
		rep.Status = domain.CrawlStatusError
		rep.Error = err.Error()
		log.Error().Str("source", string(src)).Err(err).Msg("fetch failed")
	case len(raws) == 0:
		rep.Status = domain.CrawlStatusPartial
		rep.Error = "no reviews found"
		log.Warn().Str("source", string(src)).Msg("no reviews found")
	default:
		records := Normalize(src, raws, time.Now().UTC())
		saved, perr := s.repo.UpsertReviews(ctx, records)
		rep.Saved = saved
		switch {
		case perr != nil:
			rep.Status = domain.CrawlStatusError
			rep.Error = perr.Error()
		case saved < len(records):
			rep.Status = domain.CrawlStatusPartial
			rep.Error = fmt.Sprintf("saved %d of %d records", saved, len(records))
		default:
			rep.Status = domain.CrawlStatusSuccess
		}
		log.Info().
			Str("source", string(src)).
			Int("fetched", rep.Fetched).
			Int("saved", saved).
			Msg("source ingested")
	}

	entry.Status = rep.Status
	entry.DurationMS = time.Since(start).Milliseconds()
	count := rep.Saved
	entry.ReviewCount = &count
	if rep.Error != "" {
		msg := rep.Error
		entry.ErrorMsg = &msg
	}
	if lerr := s.repo.LogCrawl(ctx, entry); lerr != nil {
		log.Warn().Str("source", string(src)).Err(lerr).Msg("crawl log write failed")
	}
	observability.ObserveCrawl(string(src), rep.Status, rep.Saved)
	return rep
}

// invalidateDashboards evicts the read-side cache entries the API serves.
func (s *CrawlService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "summary")
	for _, src := range []string{"all", string(domain.SourceGMaps), string(domain.SourcePlayStore)} {
		for _, lim := range []int{50, 100, 200} {
			_ = s.cache.Del(ctx, fmt.Sprintf("reviews:%s:all:%d", src, lim))
		}
	}
}

var placeIDRe = regexp.MustCompile(`place_id:([^&]+)`)
var placeSlugRe = regexp.MustCompile(`/maps/place/([^/@]+)`)

// ExtractPlaceKey derives a stable audit-log key from a GMaps place URL:
// the embedded place_id when present, else the place slug, else a fixed
// fallback token.
func ExtractPlaceKey(url string) string {
	if m := placeIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if m := placeSlugRe.FindStringSubmatch(url); m != nil {
		return strings.ToLower(strings.ReplaceAll(m[1], "+", "_"))
	}
	return "gmaps_fallback"
}
