package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/models"
)

// Paginator walks the stock listing from page 1 upwards. The listing ends
// only when the page shows the explicit "no results" marker.
type Paginator struct {
	page       browser.Page
	listingURL string
	origin     string
	next       int
	done       bool
	logger     *slog.Logger
}

func NewPaginator(page browser.Page, listingURL, origin string, logger *slog.Logger) *Paginator {
	return &Paginator{
		page:       page,
		listingURL: listingURL,
		origin:     origin,
		next:       1,
		logger:     logger.With("component", "paginator"),
	}
}

// Next loads the next inventory page. It returns ErrEndOfListing once the
// terminal page is reached. Load failures are returned as-is for the caller
// to abort on; there is no per-page retry.
func (p *Paginator) Next(ctx context.Context) (*models.InventoryPage, error) {
	if p.done {
		return nil, ErrEndOfListing
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := p.next
	pageURL, err := p.pageURL(index)
	if err != nil {
		return nil, err
	}

	p.logger.Info("scraping listing page", "page", index, "url", pageURL)

	if err := p.page.Goto(pageURL); err != nil {
		return nil, fmt.Errorf("failed to load listing page %d: %w", index, err)
	}
	if err := p.page.WaitForSelector(tableBodySelector, browser.WaitOptions{State: browser.StateAttached}); err != nil {
		return nil, fmt.Errorf("listing page %d did not render: %w", index, err)
	}

	noResults, err := p.page.Query(noResultsSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to check for end of listing: %w", err)
	}
	if noResults != nil {
		p.done = true
		p.logger.Info("no more results, stopping", "page", index)
		return nil, ErrEndOfListing
	}

	handles, err := p.page.QueryAll(articleRowSel)
	if err != nil {
		return nil, fmt.Errorf("failed to list article rows on page %d: %w", index, err)
	}

	inv := &models.InventoryPage{
		Index: index,
		URL:   pageURL,
		Rows:  make([]*models.ItemRow, 0, len(handles)),
	}
	for i, h := range handles {
		row, err := p.readRow(i, h)
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d on page %d: %w", i, index, err)
		}
		inv.Rows = append(inv.Rows, row)
	}

	p.next++
	p.logger.Debug("listing page loaded", "page", index, "rows", len(inv.Rows))

	return inv, nil
}

func (p *Paginator) pageURL(index int) (string, error) {
	u, err := url.Parse(p.listingURL)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %q: %w", p.listingURL, err)
	}
	q := u.Query()
	q.Set("site", strconv.Itoa(index))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Paginator) readRow(position int, h browser.Element) (*models.ItemRow, error) {
	row := &models.ItemRow{Position: position, Handle: h}

	id, err := h.Attribute("id")
	if err != nil {
		return nil, err
	}
	row.ID = id

	foil, err := h.Query(foilIconSelector)
	if err != nil {
		return nil, err
	}
	row.Foil = foil != nil

	link, err := h.Query(detailLinkSel)
	if err != nil {
		return nil, err
	}
	if link == nil {
		// Left without a DetailURL; the repricer skips it.
		return row, nil
	}

	href, err := link.Attribute("href")
	if err != nil {
		return nil, err
	}
	row.Link = href
	if href == "" {
		return row, nil
	}

	row.DetailURL, err = models.ResolveDetailURL(p.origin, href, row.Foil)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("article row", "row", row.ID, "is_foil", row.FoilFlag(), "url", row.DetailURL)

	return row, nil
}
