package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/models"
	"github.com/maltedev/cardmarket-repricer/internal/parser"
)

type fetchState int

const (
	stateAttempting fetchState = iota
	stateChallengePending
	stateSucceeded
	stateExhausted
)

func (s fetchState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateChallengePending:
		return "challenge_pending"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("fetchState(%d)", int(s))
	}
}

// DetailFetcher opens an article's product page in its own tab and reads the
// price trend from it.
type DetailFetcher struct {
	opener      browser.Opener
	challenge   *ChallengeHandler
	parser      parser.Parser
	maxAttempts int
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

func NewDetailFetcher(
	opener browser.Opener,
	challenge *ChallengeHandler,
	p parser.Parser,
	maxAttempts int,
	backoff time.Duration,
	logger *slog.Logger,
) *DetailFetcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DetailFetcher{
		opener:      opener,
		challenge:   challenge,
		parser:      p,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       sleepContext,
		logger:      logger.With("component", "detail_fetcher"),
	}
}

// Fetch returns the raw price trend text for row. The detail page is closed
// before Fetch returns, whatever the outcome.
func (f *DetailFetcher) Fetch(ctx context.Context, row *models.ItemRow) (string, error) {
	if row.DetailURL == "" {
		return "", ErrMissingDetailLink
	}

	page, err := f.opener.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to open detail page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			f.logger.Warn("failed to close detail page", "url", row.DetailURL, "error", err)
		}
	}()

	if err := f.navigate(ctx, page, row.DetailURL); err != nil {
		return "", err
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}

	trend, err := f.parser.PriceTrend(html)
	if err != nil {
		return "", err
	}

	return trend, nil
}

// navigate runs the attempt/challenge state machine until the page is usable
// or the attempts are used up.
func (f *DetailFetcher) navigate(ctx context.Context, page browser.Page, url string) error {
	var (
		state   = stateAttempting
		attempt int
		lastErr error
		err     error
	)

	for {
		switch state {
		case stateAttempting:
			attempt++
			if lastErr = page.Goto(url); lastErr != nil {
				if state, err = f.fail(ctx, url, attempt, lastErr); err != nil {
					return err
				}
				continue
			}
			if f.challenge.Present(page) {
				state = stateChallengePending
			} else {
				state = stateSucceeded
			}

		case stateChallengePending:
			if lastErr = f.challenge.Await(page); lastErr != nil {
				if state, err = f.fail(ctx, url, attempt, lastErr); err != nil {
					return err
				}
				continue
			}
			state = stateSucceeded

		case stateSucceeded:
			if attempt > 1 {
				f.logger.Info("navigation succeeded after retry", "url", url, "attempt", attempt)
			}
			return nil

		case stateExhausted:
			return fmt.Errorf("%w after %d attempts: %v", ErrNavigationExhausted, attempt, lastErr)
		}
	}
}

// fail decides the state after a failed attempt, sleeping the back-off
// before another attempt. It only returns an error when ctx is done.
func (f *DetailFetcher) fail(ctx context.Context, url string, attempt int, cause error) (fetchState, error) {
	f.logger.Warn("navigation attempt failed", "url", url, "attempt", attempt, "error", cause)

	if attempt >= f.maxAttempts {
		f.logger.Warn("max retries reached, skipping page", "url", url, "attempts", attempt)
		return stateExhausted, nil
	}

	f.logger.Info("retrying navigation", "url", url, "next_attempt", attempt+1, "delay", f.backoff)
	if err := f.sleep(ctx, f.backoff); err != nil {
		return stateExhausted, err
	}
	return stateAttempting, nil
}
