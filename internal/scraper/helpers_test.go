package scraper

import (
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/browser/browsertest"
	"github.com/maltedev/cardmarket-repricer/internal/config"
)

const (
	testOrigin     = "https://www.cardmarket.com"
	testLoginURL   = testOrigin + "/es/Magic"
	testListingURL = testOrigin + "/en/Magic/Stock/Offers/Singles"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Account: config.AccountConfig{Email: "seller@example.com", Password: "secret"},
		Market: config.MarketConfig{
			BaseURL:    testOrigin,
			LoginURL:   testLoginURL,
			ListingURL: testListingURL,
		},
		Scraper: config.ScraperConfig{
			MaxAttempts:      3,
			RetryDelay:       time.Millisecond,
			ChallengeProbe:   10 * time.Millisecond,
			ChallengeTimeout: 10 * time.Millisecond,
		},
	}
}

func articleRow(id, link string, foil bool) *browsertest.Element {
	row := browsertest.NewElement()
	row.Attrs["id"] = id
	if link != "" {
		a := browsertest.NewElement()
		a.Attrs["href"] = link
		row.With(detailLinkSel, a)
	}
	if foil {
		row.With(foilIconSelector, browsertest.NewElement())
	}
	row.With(editButtonSelector, browsertest.NewElement())
	return row
}

// listingPage serves rows[site] for each listing page and the "no results"
// marker for any site without rows.
func listingPage(rows map[int][]*browsertest.Element) *browsertest.Page {
	page := browsertest.NewPage()
	page.SetElements(priceInputSelector, browsertest.NewElement())
	page.OnGoto = func(p *browsertest.Page, rawURL string) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		site := u.Query().Get("site")
		if site == "" {
			return nil
		}
		n, _ := strconv.Atoi(site)

		p.SetElements(tableBodySelector, browsertest.NewElement())
		els := make([]browser.Element, 0, len(rows[n]))
		for _, r := range rows[n] {
			els = append(els, r)
		}
		p.SetElements(articleRowSel, els...)
		if len(els) == 0 {
			p.SetElements(noResultsSelector, browsertest.NewElement())
		} else {
			p.SetElements(noResultsSelector)
		}
		return nil
	}
	return page
}

func priceTrendHTML(trend string) string {
	return `<html><body><dl class="labeled row">
		<dt>From</dt><dd>0,02 €</dd>
		<dt>Price Trend</dt><dd><span>` + trend + `</span></dd>
	</dl></body></html>`
}

// detailPages serves HTML per detail URL. URLs without an entry render a page
// without a price block.
func detailPages(htmlByURL map[string]string) *browsertest.Opener {
	return &browsertest.Opener{
		Build: func(int) (*browsertest.Page, error) {
			page := browsertest.NewPage()
			page.OnGoto = func(p *browsertest.Page, u string) error {
				html, ok := htmlByURL[u]
				if !ok {
					p.HTML = `<html><body><h1>Not found</h1></body></html>`
					return nil
				}
				p.HTML = html
				p.SetElements(detailReadySel, browsertest.NewElement())
				return nil
			}
			return page, nil
		},
	}
}
