// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"ulasan_sentimen/internal/app"
	"ulasan_sentimen/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	C *app.CrawlService
	// RunOptions for API-triggered crawls, built from config at startup.
	Run app.RunOptions
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/reviews", h.listReviews)
	s.mux.Get("/v1/summary", h.summary)
	s.mux.Get("/v1/crawl-logs", h.listCrawlLogs)
	s.mux.Post("/v1/crawl", h.triggerCrawl)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func parseLimit(r *http.Request, def, max int) (int, bool) {
	ls := r.URL.Query().Get("limit")
	if ls == "" {
		return def, true
	}
	l, err := strconv.Atoi(ls)
	if err != nil || l <= 0 || l > max {
		return 0, false
	}
	return l, true
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, 50, 200)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return
	}

	q := domain.ReviewsQuery{Limit: limit}
	switch s := r.URL.Query().Get("source"); s {
	case "":
	case string(domain.SourceGMaps), string(domain.SourcePlayStore):
		src := domain.Source(s)
		q.Source = &src
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid source", "source must be gmaps or playstore")
		return
	}
	switch l := r.URL.Query().Get("label"); l {
	case "":
	case string(domain.LabelPositive), string(domain.LabelNegative), string(domain.LabelNeutral):
		label := domain.Label(l)
		q.Label = &label
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid label", "label must be positive, negative or neutral")
		return
	}

	out, err := h.Q.ListReviews(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not list reviews")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.Summary(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not build summary")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) listCrawlLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, 50, 200)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return
	}
	out, err := h.Q.ListCrawlLogs(r.Context(), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not list crawl logs")
		return
	}
	writeCached(w, r, out)
}

// triggerCrawl starts a crawl-and-classify run in the background. The run
// itself outlives the request; progress lands in the crawl logs.
func (h *Handlers) triggerCrawl(w http.ResponseWriter, r *http.Request) {
	if h.C == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Crawling disabled", "no crawl service configured")
		return
	}

	if err := h.C.StartAsync(h.Run); err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			writeProblem(w, http.StatusConflict, "Run in progress", "a crawl run is already executing")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Crawl failed to start", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}
