package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// Sources
	GMapsURL      string
	GMapsStrategy string // browser|taskapi|searchapi
	PlayPackage   string
	PlayAPIBase   string
	UserAgent     string

	TaskAPIBase   string
	TaskAPIKey    string
	TaskID        string
	SearchAPIBase string
	SearchAPIKey  string

	// Classifier
	ClassifierBase string
	ClassifierKey  string

	// Crawl knobs
	MaxReviews   int
	BatchSize    int
	MaxBatches   int
	CrawlTimeout time.Duration
	CrawlEvery   time.Duration // 0 = run once and exit

	CacheTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/ulasan?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		GMapsURL:      env("GMAPS_URL", ""),
		GMapsStrategy: env("GMAPS_STRATEGY", "browser"),
		PlayPackage:   env("PLAYSTORE_PACKAGE", ""),
		PlayAPIBase:   env("PLAYSTORE_API_BASE_URL", "http://localhost:8600"),
		UserAgent:     env("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"),

		TaskAPIBase:   env("TASK_API_BASE_URL", ""),
		TaskAPIKey:    env("TASK_API_KEY", ""),
		TaskID:        env("TASK_API_TASK_ID", ""),
		SearchAPIBase: env("SEARCH_API_BASE_URL", ""),
		SearchAPIKey:  env("SEARCH_API_KEY", ""),

		ClassifierBase: env("CLASSIFIER_BASE_URL", "http://localhost:8500"),
		ClassifierKey:  env("CLASSIFIER_API_KEY", ""),

		MaxReviews:   atoi("CRAWL_MAX_REVIEWS", 50),
		BatchSize:    atoi("CRAWL_BATCH_SIZE", 10),
		MaxBatches:   atoi("CRAWL_MAX_BATCHES", 5),
		CrawlTimeout: time.Duration(atoi("CRAWL_TIMEOUT_SECONDS", 600)) * time.Second,
		CrawlEvery:   time.Duration(atoi("CRAWL_EVERY_HOURS", 0)) * time.Hour,

		CacheTTL: time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
	if c.GMapsURL == "" && c.PlayPackage == "" {
		log.Warn().Msg("no GMAPS_URL or PLAYSTORE_PACKAGE configured; crawl runs will be no-ops")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
