// Package scraper drives the Cardmarket stock pages: it logs in, walks the
// seller's inventory, reads each article's price trend and writes the
// adjusted price back through the inline edit form.
package scraper

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEndOfListing        = errors.New("no more results")
	ErrNavigationExhausted = errors.New("navigation retries exhausted")
	ErrChallengeNotCleared = errors.New("challenge not cleared")
	ErrEditControlNotFound = errors.New("edit control not found")
	ErrMissingDetailLink   = errors.New("article row has no detail link")
)

const (
	usernameSelector = `input[name="username"]`
	passwordSelector = `input[name="userPassword"]`
	loginSubmit      = `input[type="submit"]`

	tableBodySelector = ".table-body"
	noResultsSelector = ".table-body .noResults"
	articleRowPrefix  = "articleRow"
	articleRowSel     = `[id^="` + articleRowPrefix + `"]`
	foilIconSelector  = `span.icon.st_SpecialIcon[aria-label="Foil"]`
	detailLinkSel     = ".col-sellerProductInfo.col .row.g-0 .col-seller.col-12.col-lg-auto a"

	challengeSelector = `iframe[title*="challenge"]`
	detailReadySel    = ".labeled"

	editButtonSelector = `div[aria-label="Edit"] a.btn.btn-secondary`
	priceInputSelector = `input[name="price"]`
	editSubmitSelector = `button[type="submit"]`
)

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
