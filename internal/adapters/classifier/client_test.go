package classifier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ulasan_sentimen/internal/adapters/classifier"
)

func TestClassify_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			var in struct {
				Text string `json:"text"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in.Text == "" {
				t.Errorf("empty text forwarded to classifier")
			}
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{"label": "LABEL_0", "score": 0.91})
		}
	}))
	defer ts.Close()

	cl, err := classifier.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	label, score, err := cl.Classify(ctx, "pelayanan ramah")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if label != "label_0" {
		t.Fatalf("label not lowercased: %q", label)
	}
	if score != 0.91 {
		t.Fatalf("unexpected score: %v", score)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClassify_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer ts.Close()

	cl, err := classifier.New(ts.URL, "bad-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, _, err := cl.Classify(ctx, "x"); err == nil {
		t.Fatalf("expected error for 401")
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := classifier.New("", "", 5); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
