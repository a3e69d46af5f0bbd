package main

import (
	"github.com/rs/zerolog/log"

	"ulasan_sentimen/internal/adapters/classifier"
	"ulasan_sentimen/internal/adapters/gmaps"
	"ulasan_sentimen/internal/adapters/playstore"
	"ulasan_sentimen/internal/app"
	"ulasan_sentimen/internal/domain"
	"ulasan_sentimen/internal/shared"
)

// buildCrawlService wires the configured map-review strategy, the app
// review feed and the classifier into one crawl service.
func buildCrawlService(cfg shared.Config, repo domain.ReviewRepository, cache domain.Cache) *app.CrawlService {
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
	return app.NewCrawlService(mapSrc, play, repo, cache, cls)
}
