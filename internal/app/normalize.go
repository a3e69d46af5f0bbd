package app

import (
	"strconv"
	"strings"
	"time"

	"ulasan_sentimen/internal/domain"
)

/********** alias registry (single source of truth) **********/

// The three map-review backends and the app-store feed all name the same
// fields differently; dot paths unwrap nested user objects.
var reviewAliases = map[string][]string{
	"id":       {"review_id", "reviewId", "id", "review_id_hash"},
	"username": {"username", "userName", "name", "user.name", "user.displayName", "author", "reviewer.name"},
	"text":     {"comment_text", "content", "text", "snippet", "review_text", "body"},
	"rating":   {"rating", "score", "stars", "rating.value"},
	"date":     {"created_at", "at", "date", "iso_date", "published_at", "time"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) *string {
	for _, p := range reviewAliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return &s
		}
	}
	return nil
}

// firstIntFlexible: integer from several paths (float64/int/string).
func firstIntFlexible(m map[string]any, paths ...string) *int {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int(v)
			return &x
		case int:
			x := v
			return &x
		case int64:
			x := int(v)
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.Atoi(s); err == nil {
				return &n
			}
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

/********** normalizer **********/

// Normalize maps heterogeneous raw payloads into canonical review records.
// Records without a review id are dropped, not errored on. Sentiment fields
// start null; they are set together by the classification pipeline or not
// at all. Unparsable dates stay null instead of defaulting to "now" so they
// cannot pollute time-series views.
func Normalize(source domain.Source, raws []map[string]any, now time.Time) []domain.Review {
	out := make([]domain.Review, 0, len(raws))
	for _, raw := range raws {
		id := firstNonEmptyAlias(raw, "id")
		if id == nil {
			continue
		}

		rv := domain.Review{
			ReviewID: *id,
			Source:   source,
			Username: firstNonEmptyAlias(raw, "username"),
			Rating:   firstIntFlexible(raw, reviewAliases["rating"]...),
		}

		if s := firstNonEmptyAlias(raw, "text"); s != nil {
			rv.CommentText = s
		}

		for _, p := range reviewAliases["date"] {
			switch v := lookupAny(raw, p).(type) {
			case time.Time:
				t := v.UTC()
				rv.CreatedAt = &t
			case string:
				rv.CreatedAt = parseReviewDate(v, now)
			}
			if rv.CreatedAt != nil {
				break
			}
		}

		out = append(out, rv)
	}
	return out
}
