package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"ulasan_sentimen/internal/adapters/classifier"
	"ulasan_sentimen/internal/adapters/gmaps"
	"ulasan_sentimen/internal/adapters/observability"
	"ulasan_sentimen/internal/adapters/playstore"
	redisad "ulasan_sentimen/internal/adapters/redis"
	"ulasan_sentimen/internal/app"
	"ulasan_sentimen/internal/domain"
	"ulasan_sentimen/internal/shared"
	mysqlrepo "ulasan_sentimen/internal/storage/mysql"
)

const heartbeatEvery = 30 * time.Second

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "crawler")

	log.Info().
		Str("gmaps_url", cfg.GMapsURL).
		Str("strategy", cfg.GMapsStrategy).
		Str("package", cfg.PlayPackage).
		Int("max_reviews", cfg.MaxReviews).
		Msg("crawler starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	clf, err := classifier.New(cfg.ClassifierBase, cfg.ClassifierKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize classifier client")
	}

	var mapSrc domain.MapReviewSource
	switch cfg.GMapsStrategy {
	case "taskapi":
		mapSrc = gmaps.NewTaskAPISource(cfg.TaskAPIBase, cfg.TaskAPIKey, cfg.TaskID)
	case "searchapi":
		mapSrc = gmaps.NewSearchAPISource(cfg.SearchAPIBase, cfg.SearchAPIKey)
	case "browser":
		mapSrc = gmaps.NewBrowserSource(cfg.UserAgent)
	default:
		log.Fatal().Str("strategy", cfg.GMapsStrategy).Msg("unknown GMAPS_STRATEGY")
	}

	play := playstore.New(cfg.PlayAPIBase)
	cls := app.NewClassifyService(repo, clf)
	crawl := app.NewCrawlService(mapSrc, play, repo, cache, cls)

	opts := app.RunOptions{
		GMapsURL:     cfg.GMapsURL,
		PlayPackage:  cfg.PlayPackage,
		MaxReviews:   cfg.MaxReviews,
		BatchSize:    cfg.BatchSize,
		MaxBatches:   cfg.MaxBatches,
		GMapsTimeout: cfg.CrawlTimeout,
	}

	stopHeartbeat := startHeartbeat()
	defer stopHeartbeat()

	runOnce(ctx, crawl, opts)

	if cfg.CrawlEvery <= 0 {
		log.Info().Msg("crawl completed")
		return
	}

	// Scheduled mode: keep running on the configured interval.
	log.Info().Dur("every", cfg.CrawlEvery).Msg("scheduler active")
	ticker := time.NewTicker(cfg.CrawlEvery)
	defer ticker.Stop()
	for range ticker.C {
		runOnce(ctx, crawl, opts)
	}
}

func runOnce(ctx context.Context, crawl *app.CrawlService, opts app.RunOptions) {
	start := time.Now()
	report, err := crawl.Run(ctx, opts)
	if err != nil {
		log.Error().Err(err).Msg("crawl run failed")
		return
	}
	for _, src := range report.Sources {
		log.Info().
			Str("source", string(src.Source)).
			Str("status", src.Status).
			Int("fetched", src.Fetched).
			Int("saved", src.Saved).
			Msg("source finished")
	}
	log.Info().
		Int("classified", report.Classified).
		Dur("duration", time.Since(start)).
		Msg("run finished")
}

// startHeartbeat logs liveness during long scheduled runs. It carries no
// functional role; it only keeps hosted-log streams from going silent.
func startHeartbeat() func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(heartbeatEvery)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				log.Info().Msg("crawler heartbeat")
			}
		}
	}()
	return func() { close(done) }
}
