package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpserver "ulasan_sentimen/internal/adapters/http_server"
	"ulasan_sentimen/internal/app"
	"ulasan_sentimen/internal/domain"
)

// ---------- fakes ----------

type stubRepo struct {
	reviews []domain.Review
	logs    []domain.CrawlLog
}

func (s *stubRepo) UpsertReviews(ctx context.Context, rs []domain.Review) (int, error) {
	s.reviews = append(s.reviews, rs...)
	return len(rs), nil
}

func (s *stubRepo) SetSentiment(ctx context.Context, id string, label domain.Label, score float64, at time.Time) error {
	return nil
}

func (s *stubRepo) LogCrawl(ctx context.Context, l domain.CrawlLog) error {
	s.logs = append(s.logs, l)
	return nil
}

func (s *stubRepo) ListUnclassified(ctx context.Context, limit int) ([]domain.Review, error) {
	return nil, nil
}

func (s *stubRepo) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	return s.reviews, nil
}

func (s *stubRepo) Summary(ctx context.Context) (domain.Summary, error) {
	return domain.Summary{Total: len(s.reviews)}, nil
}

func (s *stubRepo) ListCrawlLogs(ctx context.Context, limit int) ([]domain.CrawlLog, error) {
	return s.logs, nil
}

type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string, dst any) (bool, error) { return false, nil }
func (nopCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	return nil
}
func (nopCache) Del(ctx context.Context, key string) error { return nil }

type slowSource struct{ d time.Duration }

func (s slowSource) FetchReviews(ctx context.Context, url string, max int) ([]map[string]any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.d):
	}
	return []map[string]any{{"review_id": "g-1", "comment_text": "enak", "rating": 5}}, nil
}

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	return "positive", 0.9, nil
}

func newTestServer(repo *stubRepo, crawl *app.CrawlService) *httptest.Server {
	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Q:   app.NewQueryService(repo, nopCache{}, time.Minute),
		C:   crawl,
		Run: app.RunOptions{GMapsURL: "https://maps.example/place", MaxReviews: 5},
	})
	return httptest.NewServer(srv.Mux())
}

// ---------- tests ----------

func TestListReviews_ValidationAndETag(t *testing.T) {
	repo := &stubRepo{reviews: []domain.Review{{ReviewID: "g-1", Source: domain.SourceGMaps}}}
	ts := newTestServer(repo, nil)
	defer ts.Close()

	// bad params get problem+json
	for _, path := range []string{
		"/v1/reviews?limit=0",
		"/v1/reviews?limit=9999",
		"/v1/reviews?limit=abc",
		"/v1/reviews?source=yelp",
		"/v1/reviews?label=angry",
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
			t.Errorf("GET %s content-type = %s", path, ct)
		}
		resp.Body.Close()
	}

	// good request carries an ETag; replaying it yields 304
	resp, err := http.Get(ts.URL + "/v1/reviews?source=gmaps&limit=10")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	var out []domain.Review
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].ReviewID != "g-1" {
		t.Fatalf("body = %+v", out)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/reviews?source=gmaps&limit=10", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want 304", resp2.StatusCode)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	repo := &stubRepo{reviews: []domain.Review{{ReviewID: "a"}, {ReviewID: "b"}}}
	ts := newTestServer(repo, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/summary")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var sum domain.Summary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Total != 2 {
		t.Fatalf("summary total = %d, want 2", sum.Total)
	}
}

func TestTriggerCrawl_AcceptedThenConflict(t *testing.T) {
	repo := &stubRepo{}
	cls := app.NewClassifyService(repo, stubClassifier{})
	crawl := app.NewCrawlService(slowSource{d: 150 * time.Millisecond}, nil, repo, nopCache{}, cls)
	ts := newTestServer(repo, crawl)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/crawl", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("first trigger status = %d, want 202", resp.StatusCode)
	}

	resp2, err := http.Post(ts.URL+"/v1/crawl", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("overlapping trigger status = %d, want 409", resp2.StatusCode)
	}

	// once the background run drains, a new trigger is accepted again
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp3, err := http.Post(ts.URL+"/v1/crawl", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp3.Body.Close()
		if resp3.StatusCode == http.StatusAccepted {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("crawl gate never released")
}

func TestTriggerCrawl_NoServiceConfigured(t *testing.T) {
	ts := newTestServer(&stubRepo{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/crawl", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}
