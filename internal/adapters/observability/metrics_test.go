package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ulasan_sentimen/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample per family so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveCrawl("gmaps", "success", 7)
	observability.ObserveClassified("positive")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, family := range []string{
		"ulasan_http_requests_total",
		"ulasan_crawl_runs_total",
		"ulasan_reviews_ingested_total",
		"ulasan_reviews_classified_total",
	} {
		if !strings.Contains(out, family) {
			t.Errorf("expected %s in output", family)
		}
	}
}
