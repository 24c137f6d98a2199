package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/browser/browsertest"
	"github.com/maltedev/cardmarket-repricer/internal/models"
	"github.com/maltedev/cardmarket-repricer/internal/parser"
)

const testDetailURL = testOrigin + "/en/Magic/Products/Singles/Dominaria/Llanowar-Elves?isFoil=N"

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestFetcher(opener browser.Opener) (*DetailFetcher, *sleepRecorder) {
	cfg := testConfig()
	f := NewDetailFetcher(
		opener,
		NewChallengeHandler(cfg.Scraper.ChallengeProbe, cfg.Scraper.ChallengeTimeout, discardLogger()),
		parser.NewCardmarketParser(),
		3,
		2*time.Second,
		discardLogger(),
	)
	rec := &sleepRecorder{}
	f.sleep = rec.sleep
	return f, rec
}

func detailRow() *models.ItemRow {
	return &models.ItemRow{ID: "articleRow1", DetailURL: testDetailURL}
}

func TestFetchReturnsPriceTrend(t *testing.T) {
	opener := detailPages(map[string]string{testDetailURL: priceTrendHTML("1,23 €")})
	f, rec := newTestFetcher(opener)

	trend, err := f.Fetch(context.Background(), detailRow())
	require.NoError(t, err)
	assert.Equal(t, "1,23 €", trend)

	require.Len(t, opener.Opened, 1)
	assert.Equal(t, 1, opener.Opened[0].Closes)
	assert.Equal(t, 1, opener.Opened[0].CallCount("goto"))
	assert.Empty(t, rec.calls)
}

func TestFetchPriceTrendNotFound(t *testing.T) {
	opener := detailPages(map[string]string{
		testDetailURL: `<html><body><dl class="labeled"><dt>From</dt><dd>0,02 €</dd></dl></body></html>`,
	})
	f, _ := newTestFetcher(opener)

	_, err := f.Fetch(context.Background(), detailRow())
	assert.ErrorIs(t, err, parser.ErrPriceTrendNotFound)
	assert.Equal(t, 1, opener.Opened[0].Closes)
}

func TestFetchMissingLabeledBlock(t *testing.T) {
	opener := detailPages(map[string]string{})
	f, _ := newTestFetcher(opener)

	_, err := f.Fetch(context.Background(), detailRow())
	assert.ErrorIs(t, err, parser.ErrLabeledBlockNotFound)
	assert.Equal(t, 1, opener.Opened[0].Closes)
}

func TestFetchRetriesThenGivesUp(t *testing.T) {
	boom := errors.New("net::ERR_TIMED_OUT")
	opener := &browsertest.Opener{
		Build: func(int) (*browsertest.Page, error) {
			page := browsertest.NewPage()
			page.OnGoto = func(*browsertest.Page, string) error { return boom }
			return page, nil
		},
	}
	f, rec := newTestFetcher(opener)

	_, err := f.Fetch(context.Background(), detailRow())
	assert.ErrorIs(t, err, ErrNavigationExhausted)

	page := opener.Opened[0]
	assert.Equal(t, 3, page.CallCount("goto"))
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.calls, "no back-off after the last attempt")
	assert.Equal(t, 1, page.Closes)
}

func TestFetchSucceedsAfterRetry(t *testing.T) {
	attempts := 0
	opener := &browsertest.Opener{
		Build: func(int) (*browsertest.Page, error) {
			page := browsertest.NewPage()
			page.OnGoto = func(p *browsertest.Page, _ string) error {
				attempts++
				if attempts < 3 {
					return errors.New("net::ERR_CONNECTION_CLOSED")
				}
				p.HTML = priceTrendHTML("5,00 €")
				p.SetElements(detailReadySel, browsertest.NewElement())
				return nil
			}
			return page, nil
		},
	}
	f, rec := newTestFetcher(opener)

	trend, err := f.Fetch(context.Background(), detailRow())
	require.NoError(t, err)
	assert.Equal(t, "5,00 €", trend)
	assert.Len(t, rec.calls, 2)
	assert.Equal(t, 1, opener.Opened[0].Closes)
}

func TestFetchWaitsOutChallenge(t *testing.T) {
	opener := &browsertest.Opener{
		Build: func(int) (*browsertest.Page, error) {
			page := browsertest.NewPage()
			page.OnGoto = func(p *browsertest.Page, _ string) error {
				p.SetElements(challengeSelector, browsertest.NewElement())
				return nil
			}
			page.OnWait = func(p *browsertest.Page, selector string, opts browser.WaitOptions) error {
				if opts.State == browser.StateDetached {
					assert.Equal(t, 10*time.Millisecond, opts.Timeout)
					// The human solved it; the real page replaces the interstitial.
					p.SetElements(challengeSelector)
					p.SetElements(detailReadySel, browsertest.NewElement())
					p.HTML = priceTrendHTML("2,00 €")
				}
				return nil
			}
			return page, nil
		},
	}
	f, rec := newTestFetcher(opener)

	trend, err := f.Fetch(context.Background(), detailRow())
	require.NoError(t, err)
	assert.Equal(t, "2,00 €", trend)
	assert.Empty(t, rec.calls)
	assert.Equal(t, 1, opener.Opened[0].CallCount("wait "+challengeSelector+" detached"))
}

func TestFetchChallengeNeverClears(t *testing.T) {
	opener := &browsertest.Opener{
		Build: func(int) (*browsertest.Page, error) {
			page := browsertest.NewPage()
			page.OnGoto = func(p *browsertest.Page, _ string) error {
				p.SetElements(challengeSelector, browsertest.NewElement())
				return nil
			}
			return page, nil
		},
	}
	f, rec := newTestFetcher(opener)

	_, err := f.Fetch(context.Background(), detailRow())
	assert.ErrorIs(t, err, ErrNavigationExhausted)
	assert.ErrorContains(t, err, ErrChallengeNotCleared.Error())

	page := opener.Opened[0]
	assert.Equal(t, 3, page.CallCount("goto"))
	assert.Equal(t, 3, page.CallCount("wait "+challengeSelector+" detached"))
	assert.Len(t, rec.calls, 2)
	assert.Equal(t, 1, page.Closes)
}

func TestFetchStopsWhenCancelledDuringBackoff(t *testing.T) {
	opener := &browsertest.Opener{
		Build: func(int) (*browsertest.Page, error) {
			page := browsertest.NewPage()
			page.OnGoto = func(*browsertest.Page, string) error { return errors.New("net::ERR_FAILED") }
			return page, nil
		},
	}
	f, _ := newTestFetcher(opener)
	ctx, cancel := context.WithCancel(context.Background())
	f.sleep = func(context.Context, time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := f.Fetch(ctx, detailRow())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, opener.Opened[0].CallCount("goto"))
	assert.Equal(t, 1, opener.Opened[0].Closes)
}

func TestFetchWithoutDetailURL(t *testing.T) {
	opener := &browsertest.Opener{}
	f, _ := newTestFetcher(opener)

	_, err := f.Fetch(context.Background(), &models.ItemRow{})
	assert.ErrorIs(t, err, ErrMissingDetailLink)
	assert.Empty(t, opener.Opened, "no page is opened")
}

func TestFetchOpenPageFails(t *testing.T) {
	boom := errors.New("browser has been closed")
	opener := &browsertest.Opener{
		Build: func(int) (*browsertest.Page, error) { return nil, boom },
	}
	f, _ := newTestFetcher(opener)

	_, err := f.Fetch(context.Background(), detailRow())
	assert.ErrorIs(t, err, boom)
}

func TestFetchStateString(t *testing.T) {
	assert.Equal(t, "attempting", stateAttempting.String())
	assert.Equal(t, "challenge_pending", stateChallengePending.String())
	assert.Equal(t, "succeeded", stateSucceeded.String())
	assert.Equal(t, "exhausted", stateExhausted.String())
	assert.Equal(t, "fetchState(9)", fetchState(9).String())
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepContext(ctx, 0), context.Canceled)
}
