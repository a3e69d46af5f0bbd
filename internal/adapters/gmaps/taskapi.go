package gmaps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"ulasan_sentimen/internal/adapters/observability"
)

const (
	defaultPollEvery   = 10 * time.Second
	defaultPollTimeout = 300 * time.Second
)

// TaskAPISource delegates scraping to a managed crawling service: submit
// the place URL as a task run, poll the run status on a fixed interval,
// then fetch the structured results once it completes.
type TaskAPISource struct {
	client      *resty.Client
	taskID      string
	pollEvery   time.Duration
	pollTimeout time.Duration
}

func NewTaskAPISource(base, key, taskID string) *TaskAPISource {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(base, "/"))
	client.SetTimeout(30 * time.Second)
	if key != "" {
		client.SetQueryParam("token", key)
	}
	return &TaskAPISource{
		client:      client,
		taskID:      taskID,
		pollEvery:   defaultPollEvery,
		pollTimeout: defaultPollTimeout,
	}
}

// WithPolling overrides the poll interval and timeout; tests use tiny values.
func (s *TaskAPISource) WithPolling(every, timeout time.Duration) *TaskAPISource {
	s.pollEvery = every
	s.pollTimeout = timeout
	return s
}

type taskRun struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

func (s *TaskAPISource) FetchReviews(ctx context.Context, placeURL string, maxReviews int) ([]map[string]any, error) {
	start := time.Now()
	runID, err := s.startRun(ctx, placeURL, maxReviews)
	observability.ObserveExternal("taskapi", "start_run", okStatus(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	log.Info().Str("run_id", runID).Msg("crawl task started")

	if err := s.waitRun(ctx, runID); err != nil {
		return nil, err
	}

	var items []map[string]any
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&items).
		Get(fmt.Sprintf("/v2/actor-runs/%s/dataset/items", runID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("task api: fetch items status %d", resp.StatusCode())
	}
	if len(items) > maxReviews {
		items = items[:maxReviews]
	}
	return items, nil
}

func (s *TaskAPISource) startRun(ctx context.Context, placeURL string, maxReviews int) (string, error) {
	var run taskRun
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"startUrls":  []map[string]string{{"url": placeURL}},
			"maxReviews": maxReviews,
		}).
		SetResult(&run).
		Post(fmt.Sprintf("/v2/actor-tasks/%s/runs", s.taskID))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("task api: start run status %d", resp.StatusCode())
	}
	if run.Data.ID == "" {
		return "", fmt.Errorf("task api: run id missing in response")
	}
	return run.Data.ID, nil
}

func (s *TaskAPISource) waitRun(ctx context.Context, runID string) error {
	deadline := time.Now().Add(s.pollTimeout)
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("task api: run %s did not finish within %s", runID, s.pollTimeout)
		}

		var run taskRun
		resp, err := s.client.R().
			SetContext(ctx).
			SetResult(&run).
			Get(fmt.Sprintf("/v2/actor-runs/%s", runID))
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("task api: poll status %d", resp.StatusCode())
		}

		switch run.Data.Status {
		case "SUCCEEDED":
			return nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return fmt.Errorf("task api: run %s ended with status %s", runID, run.Data.Status)
		default:
			log.Debug().Str("run_id", runID).Str("status", run.Data.Status).Msg("task run pending")
		}
	}
}

func okStatus(err error) int {
	if err == nil {
		return 200
	}
	return 0
}
