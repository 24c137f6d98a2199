package scraper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
)

// ChallengeHandler detects the anti-bot interstitial on detail pages and
// waits for a human to solve it in the browser window.
type ChallengeHandler struct {
	selector string
	readySel string
	probe    time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewChallengeHandler(probe, timeout time.Duration, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		selector: challengeSelector,
		readySel: detailReadySel,
		probe:    probe,
		timeout:  timeout,
		logger:   logger.With("component", "challenge"),
	}
}

// Present reports whether the challenge iframe is on the page. It waits up to
// the probe timeout for either the iframe or the page's price block, so a
// normal page returns as soon as its content is there.
func (h *ChallengeHandler) Present(page browser.Page) bool {
	err := page.WaitForSelector(h.selector+", "+h.readySel, browser.WaitOptions{
		State:   browser.StateAttached,
		Timeout: h.probe,
	})
	if err != nil {
		return false
	}

	frame, err := page.Query(h.selector)
	return err == nil && frame != nil
}

// Await blocks until the challenge iframe is detached or the timeout passes.
func (h *ChallengeHandler) Await(page browser.Page) error {
	h.logger.Warn("challenge detected, complete the verification in the browser window",
		"url", page.URL(), "timeout", h.timeout)

	err := page.WaitForSelector(h.selector, browser.WaitOptions{
		State:   browser.StateDetached,
		Timeout: h.timeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeNotCleared, err)
	}

	h.logger.Info("challenge completed, proceeding")
	return nil
}
