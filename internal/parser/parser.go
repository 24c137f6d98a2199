package parser

import "errors"

var (
	ErrLabeledBlockNotFound = errors.New("labeled price block not found")
	ErrPriceTrendNotFound   = errors.New("price trend not found")
)

// Parser extracts listing data from rendered Cardmarket HTML.
type Parser interface {
	PriceTrend(html string) (string, error)
}
