package models

import (
	"fmt"
	"net/url"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
)

// InventoryPage is one page of the seller's stock listing.
type InventoryPage struct {
	Index int
	URL   string
	Rows  []*ItemRow
}

// ItemRow is a single article row on an InventoryPage. Handle stays valid
// only while its page is loaded.
type ItemRow struct {
	Position  int
	ID        string
	Foil      bool
	Link      string
	DetailURL string
	Handle    browser.Element
}

// FoilFlag is the value of the isFoil query parameter.
func (r *ItemRow) FoilFlag() string {
	return foilFlag(r.Foil)
}

func foilFlag(foil bool) string {
	if foil {
		return "Y"
	}
	return "N"
}

// ResolveDetailURL resolves link against origin and appends the foil flag.
func ResolveDetailURL(origin, link string, foil bool) (string, error) {
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", origin, err)
	}

	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid detail link %q: %w", link, err)
	}

	u := base.ResolveReference(ref)
	q := u.Query()
	q.Set("isFoil", foilFlag(foil))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
