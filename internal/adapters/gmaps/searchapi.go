package gmaps

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ulasan_sentimen/internal/adapters/observability"
)

// SearchAPISource queries an external search API for a place's reviews and
// follows the pagination cursor embedded in each response's "next" URL.
type SearchAPISource struct {
	client *resty.Client
	key    string
}

func NewSearchAPISource(base, key string) *SearchAPISource {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(base, "/"))
	client.SetTimeout(30 * time.Second)
	return &SearchAPISource{client: client, key: key}
}

type searchPage struct {
	Reviews    []map[string]any `json:"reviews"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"serpapi_pagination"`
}

var urlPlaceIDRe = regexp.MustCompile(`place_id:([^&]+)`)

func (s *SearchAPISource) FetchReviews(ctx context.Context, placeURL string, maxReviews int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("engine", "google_maps_reviews")
	params.Set("hl", "id")
	if s.key != "" {
		params.Set("api_key", s.key)
	}
	if m := urlPlaceIDRe.FindStringSubmatch(placeURL); m != nil {
		params.Set("place_id", m[1])
	} else {
		params.Set("q", placeURL)
	}

	var out []map[string]any
	for len(out) < maxReviews {
		var page searchPage
		start := time.Now()
		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParamsFromValues(params).
			SetResult(&page).
			Get("/search.json")
		observability.ObserveExternal("searchapi", "reviews", respStatus(resp, err), time.Since(start))
		if err != nil {
			return out, err
		}
		if resp.IsError() {
			return out, fmt.Errorf("search api: status %d", resp.StatusCode())
		}

		out = append(out, page.Reviews...)

		// The continuation cursor is the query string of the "next" URL.
		if page.Pagination.Next == "" {
			break
		}
		next, err := url.Parse(page.Pagination.Next)
		if err != nil {
			break
		}
		nextParams, err := url.ParseQuery(next.RawQuery)
		if err != nil {
			break
		}
		if s.key != "" {
			nextParams.Set("api_key", s.key)
		}
		params = nextParams
	}

	if len(out) > maxReviews {
		out = out[:maxReviews]
	}
	return out, nil
}

func respStatus(resp *resty.Response, err error) int {
	if err != nil || resp == nil {
		return 0
	}
	return resp.StatusCode()
}
