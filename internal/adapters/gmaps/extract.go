package gmaps

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var digitsRe = regexp.MustCompile(`\d+`)

// extractReviews parses the reviews panel HTML into raw records. A field
// that cannot be extracted is simply absent; one broken review never stops
// the rest. The page exposes no native review id, so a stable hash over
// the extracted fields stands in as the source-qualified key; re-crawls of
// the same review collapse onto the same id.
func extractReviews(html string) []map[string]any {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []map[string]any
	doc.Find(`div[role="article"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := map[string]any{}

		if s := strings.TrimSpace(sel.Find("div.d4r55").First().Text()); s != "" {
			raw["username"] = s
		}

		// Expanded comments render in div.MyEned; the snippet span holds
		// the rest.
		text := strings.TrimSpace(sel.Find("span.wiI7pd").First().Text())
		if text == "" {
			text = strings.TrimSpace(sel.Find("div.MyEned").First().Text())
		}
		if text != "" {
			raw["comment_text"] = text
		}

		if label, ok := sel.Find(`span.kvMYJc[role="img"]`).First().Attr("aria-label"); ok {
			if m := digitsRe.FindString(label); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					raw["rating"] = n
				}
			}
		}

		if s := strings.TrimSpace(sel.Find("span.rsqaWe").First().Text()); s != "" {
			raw["created_at"] = s
		}

		if len(raw) == 0 {
			return // nothing extractable, drop the element
		}
		raw["review_id"] = stableID(raw)
		out = append(out, raw)
	})
	return out
}

func stableID(raw map[string]any) string {
	sig := strings.Join([]string{
		str(raw["username"]),
		str(raw["comment_text"]),
		str(raw["rating"]),
		str(raw["created_at"]),
	}, "|")
	sum := sha1.Sum([]byte(sig))
	return "gmaps-" + hex.EncodeToString(sum[:])
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
