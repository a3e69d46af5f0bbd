package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "ulasan_sentimen/internal/adapters/http_server"
	"ulasan_sentimen/internal/adapters/observability"
	redisad "ulasan_sentimen/internal/adapters/redis"
	"ulasan_sentimen/internal/app"
	"ulasan_sentimen/internal/shared"
	mysqlrepo "ulasan_sentimen/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	crawl := buildCrawlService(cfg, repo, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q: q,
		C: crawl,
		Run: app.RunOptions{
			GMapsURL:     cfg.GMapsURL,
			PlayPackage:  cfg.PlayPackage,
			MaxReviews:   cfg.MaxReviews,
			BatchSize:    cfg.BatchSize,
			MaxBatches:   cfg.MaxBatches,
			GMapsTimeout: cfg.CrawlTimeout,
		},
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
