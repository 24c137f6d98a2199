package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	labeledBlockSelector = ".labeled"
	priceTrendLabel      = "Price Trend"
)

type CardmarketParser struct {
	label string
}

func NewCardmarketParser() *CardmarketParser {
	return &CardmarketParser{label: priceTrendLabel}
}

// PriceTrend returns the trimmed text of the element following the first
// "Price Trend" <dt> inside the first .labeled block, e.g. "1,23 €". An empty
// value counts as not found.
func (p *CardmarketParser) PriceTrend(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	block := doc.Find(labeledBlockSelector).First()
	if block.Length() == 0 {
		return "", ErrLabeledBlockNotFound
	}

	var value string
	block.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if strings.TrimSpace(dt.Text()) != p.label {
			return true
		}
		value = strings.TrimSpace(dt.Next().Text())
		return false
	})

	if value == "" {
		return "", ErrPriceTrendNotFound
	}
	return value, nil
}
