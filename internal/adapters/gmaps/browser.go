// Package gmaps fetches place reviews through one of three interchangeable
// strategies sharing the MapReviewSource contract: a headless browser (the
// reference), a managed crawl-task API, and a paginated search API.
package gmaps

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxStuck  = 5
	scrollPause      = 2 * time.Second
	navigatePause    = 5 * time.Second
	tabPause         = 3 * time.Second
	stepTimeout      = 10 * time.Second
	reviewsPanelSel  = `div[role="region"]`
	reviewsTabSel    = `button[role="tab"][aria-label*="Ulasan"]`
	seeMorePause     = time.Second
)

// reviewSession is the thin seam between the scroll/collect loop and the
// live browser, so the loop is testable without Chrome.
type reviewSession interface {
	// OpenReviews navigates to the place page and opens the reviews panel.
	// ok=false means the tab or panel never appeared (no reviews to fetch).
	OpenReviews(url string) (ok bool, err error)
	// ScrollReviews scrolls the panel to its bottom and returns the new
	// scroll height, the stuck-scroll signal.
	ScrollReviews() (height int64, err error)
	// ExpandSeeMore clicks any collapsed "see more" controls so truncated
	// comments are fully rendered before extraction.
	ExpandSeeMore() error
	// PanelHTML returns the current HTML of the reviews panel.
	PanelHTML() (string, error)
}

// BrowserSource drives a headless browser against the place page. The
// caller bounds the whole fetch with a context deadline; on expiry the
// browser is torn down and the context error surfaces as a timeout.
type BrowserSource struct {
	userAgent string
	maxStuck  int
}

func NewBrowserSource(userAgent string) *BrowserSource {
	return &BrowserSource{userAgent: userAgent, maxStuck: defaultMaxStuck}
}

func (b *BrowserSource) FetchReviews(ctx context.Context, placeURL string, maxReviews int) ([]map[string]any, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(b.userAgent),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	return b.collect(ctx, &chromeSession{ctx: bctx}, placeURL, maxReviews)
}

// collect runs the open/scroll/extract loop. It terminates when maxReviews
// is reached, the scroll height stops growing for maxStuck consecutive
// attempts, or the context expires.
func (b *BrowserSource) collect(ctx context.Context, sess reviewSession, placeURL string, maxReviews int) ([]map[string]any, error) {
	ok, err := sess.OpenReviews(placeURL)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Panel-level miss: empty result, not a failure of the run.
		log.Warn().Str("url", placeURL).Msg("reviews panel not found")
		return nil, nil
	}

	var raws []map[string]any
	lastHeight := int64(-1)
	stuck := 0

	for len(raws) < maxReviews && stuck < b.maxStuck {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		height, err := sess.ScrollReviews()
		if err != nil {
			return nil, err
		}
		if height == lastHeight {
			stuck++
			log.Debug().Int("attempt", stuck).Int("max", b.maxStuck).Msg("scroll stuck")
		} else {
			stuck = 0
		}
		lastHeight = height

		if err := sess.ExpandSeeMore(); err != nil {
			// Expansion is best-effort; truncated text is still text.
			log.Debug().Err(err).Msg("see-more expansion failed")
		}

		html, err := sess.PanelHTML()
		if err != nil {
			return nil, err
		}
		raws = extractReviews(html)
		if n := len(raws); n > 0 && n%10 == 0 {
			log.Debug().Int("collected", n).Msg("crawl progress")
		}
	}

	if len(raws) > maxReviews {
		raws = raws[:maxReviews]
	}
	return raws, nil
}

// chromeSession implements reviewSession on a chromedp browser context.
// Individual steps get their own short timeouts so a missing element fails
// fast instead of eating the whole fetch budget.
type chromeSession struct {
	ctx context.Context
}

func (s *chromeSession) step(d time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.ctx, d)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

func (s *chromeSession) OpenReviews(url string) (bool, error) {
	if err := s.step(stepTimeout+navigatePause,
		chromedp.Navigate(url),
		chromedp.Sleep(navigatePause),
	); err != nil {
		if s.ctx.Err() != nil {
			return false, s.ctx.Err()
		}
		return false, err
	}

	if err := s.step(stepTimeout+tabPause,
		chromedp.Click(reviewsTabSel, chromedp.ByQuery),
		chromedp.Sleep(tabPause),
	); err != nil {
		if s.ctx.Err() != nil {
			return false, s.ctx.Err()
		}
		log.Warn().Err(err).Msg("reviews tab not clickable")
		return false, nil
	}

	if err := s.step(stepTimeout, chromedp.WaitVisible(reviewsPanelSel, chromedp.ByQuery)); err != nil {
		if s.ctx.Err() != nil {
			return false, s.ctx.Err()
		}
		return false, nil
	}
	return true, nil
}

const scrollJS = `(() => {
	const el = document.querySelector('div[role="region"]');
	if (!el) return -1;
	el.scrollTop = el.scrollHeight;
	return el.scrollHeight;
})()`

func (s *chromeSession) ScrollReviews() (int64, error) {
	var height int64
	err := s.step(stepTimeout,
		chromedp.Evaluate(scrollJS, &height),
		chromedp.Sleep(scrollPause),
	)
	return height, err
}

const expandJS = `(() => {
	const btns = document.querySelectorAll('button.w8nwRe[aria-expanded="false"]');
	btns.forEach(b => b.click());
	return btns.length;
})()`

func (s *chromeSession) ExpandSeeMore() error {
	var clicked int64
	if err := s.step(stepTimeout, chromedp.Evaluate(expandJS, &clicked)); err != nil {
		return err
	}
	if clicked > 0 {
		return s.step(2*seeMorePause, chromedp.Sleep(seeMorePause))
	}
	return nil
}

func (s *chromeSession) PanelHTML() (string, error) {
	var html string
	err := s.step(stepTimeout, chromedp.OuterHTML(reviewsPanelSel, &html, chromedp.ByQuery))
	return html, err
}
