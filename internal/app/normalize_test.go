package app

import (
	"testing"
	"time"

	"ulasan_sentimen/internal/domain"
)

func TestNormalize_DropsRecordsWithoutID(t *testing.T) {
	now := time.Now().UTC()
	raws := []map[string]any{
		{"username": "budi", "comment_text": "enak"},
		{"review_id": "ps-1", "comment_text": "mantap"},
		{"review_id": "", "comment_text": "kosong"},
	}
	out := Normalize(domain.SourcePlayStore, raws, now)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].ReviewID != "ps-1" {
		t.Fatalf("unexpected id: %s", out[0].ReviewID)
	}
}

func TestNormalize_UnwrapsNestedUserAndCoercesRating(t *testing.T) {
	now := time.Now().UTC()
	raws := []map[string]any{
		{
			"reviewId": "abc",
			"user":     map[string]any{"name": "siti"},
			"content":  "pelayanan bagus",
			"score":    float64(4), // JSON numbers decode as float64
		},
	}
	out := Normalize(domain.SourcePlayStore, raws, now)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	rv := out[0]
	if rv.Username == nil || *rv.Username != "siti" {
		t.Fatalf("nested username not unwrapped: %+v", rv.Username)
	}
	if rv.Rating == nil || *rv.Rating != 4 {
		t.Fatalf("rating not coerced: %+v", rv.Rating)
	}
	if rv.CommentText == nil || *rv.CommentText != "pelayanan bagus" {
		t.Fatalf("text not mapped: %+v", rv.CommentText)
	}
}

func TestNormalize_SentimentFieldsStartNull(t *testing.T) {
	out := Normalize(domain.SourceGMaps, []map[string]any{{"review_id": "g-1"}}, time.Now().UTC())
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	rv := out[0]
	if rv.SentimentLabel != nil || rv.SentimentScore != nil || rv.ProcessedAt != nil {
		t.Fatalf("sentiment fields must start null: %+v", rv)
	}
	if rv.Classified() {
		t.Fatal("fresh record reported as classified")
	}
}

func TestNormalize_Dates(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	raws := []map[string]any{
		{"review_id": "a", "created_at": "2 bulan lalu"},
		{"review_id": "b", "at": "2024-03-01T10:30:00Z"},
		{"review_id": "c", "created_at": "entah kapan"},
	}
	out := Normalize(domain.SourceGMaps, raws, now)
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if out[0].CreatedAt == nil || !out[0].CreatedAt.Equal(now.AddDate(0, -2, 0)) {
		t.Fatalf("relative date: %+v", out[0].CreatedAt)
	}
	if out[1].CreatedAt == nil {
		t.Fatalf("machine date not parsed")
	}
	// Unparsable dates stay null; they are never faked as "now".
	if out[2].CreatedAt != nil {
		t.Fatalf("unparsable date should be nil, got %v", out[2].CreatedAt)
	}
}
