package gmaps

import (
	"strings"
	"testing"
)

const samplePanel = `<div role="region">
	<div role="article">
		<div class="d4r55">Budi Santoso</div>
		<span class="kvMYJc" role="img" aria-label="5 bintang"></span>
		<span class="rsqaWe">2 hari lalu</span>
		<span class="wiI7pd">Makanannya enak, pelayanan ramah.</span>
	</div>
	<div role="article">
		<div class="d4r55">Sari</div>
		<span class="rsqaWe">seminggu lalu</span>
		<div class="MyEned">Tempat parkir sempit tapi tempatnya bersih dan nyaman untuk keluarga.</div>
	</div>
	<div role="article">
		<span class="kvMYJc" role="img" aria-label="1 bintang"></span>
	</div>
	<div role="article"></div>
</div>`

func TestExtractReviews_FieldsAndTolerance(t *testing.T) {
	raws := extractReviews(samplePanel)
	if len(raws) != 3 {
		t.Fatalf("extracted %d records, want 3 (empty article dropped)", len(raws))
	}

	first := raws[0]
	if first["username"] != "Budi Santoso" {
		t.Errorf("username = %v", first["username"])
	}
	if first["rating"] != 5 {
		t.Errorf("rating = %v, want 5", first["rating"])
	}
	if first["created_at"] != "2 hari lalu" {
		t.Errorf("created_at = %v", first["created_at"])
	}
	if s, _ := first["comment_text"].(string); !strings.Contains(s, "enak") {
		t.Errorf("comment_text = %v", first["comment_text"])
	}
	if id, _ := first["review_id"].(string); !strings.HasPrefix(id, "gmaps-") {
		t.Errorf("review_id = %v, want gmaps- prefix", first["review_id"])
	}

	// Second record: no star span, comment only in the expanded container.
	second := raws[1]
	if _, ok := second["rating"]; ok {
		t.Error("rating extracted where no star span exists")
	}
	if s, _ := second["comment_text"].(string); !strings.Contains(s, "parkir") {
		t.Errorf("expanded comment not read: %v", second["comment_text"])
	}

	// Third record: rating is the only extractable field, still kept.
	if raws[2]["rating"] != 1 {
		t.Errorf("rating-only record = %v", raws[2])
	}
}

func TestExtractReviews_StableIDAcrossRecrawls(t *testing.T) {
	a := extractReviews(samplePanel)
	b := extractReviews(samplePanel)
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("uneven extraction: %d vs %d", len(a), len(b))
	}
	seen := map[string]bool{}
	for i := range a {
		if a[i]["review_id"] != b[i]["review_id"] {
			t.Errorf("record %d id changed across parses", i)
		}
		id := a[i]["review_id"].(string)
		if seen[id] {
			t.Errorf("duplicate id %s for distinct reviews", id)
		}
		seen[id] = true
	}
}

func TestExtractReviews_GarbageHTML(t *testing.T) {
	if raws := extractReviews("<html><body>no panel here</body></html>"); len(raws) != 0 {
		t.Fatalf("raws = %v, want none", raws)
	}
	if raws := extractReviews(""); len(raws) != 0 {
		t.Fatalf("raws from empty input = %v, want none", raws)
	}
}
