// Package pricing turns scraped price trend text into the price written back
// to a listing.
package pricing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = errors.New("invalid price")

var nonNumeric = regexp.MustCompile(`[^\d,.-]`)

// Parse reads a locale formatted amount such as "1,23 €". Everything except
// digits, separators and the minus sign is dropped and the first comma is
// taken as the decimal separator.
func Parse(text string) (decimal.Decimal, error) {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	return d, nil
}

// Price is an amount rounded to cents.
type Price struct {
	amount decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price {
	return Price{amount: d.Round(2)}
}

func (p Price) Amount() decimal.Decimal {
	return p.amount
}

// Display renders the price with a comma decimal separator, e.g. "10,50".
func (p Price) Display() string {
	return strings.Replace(p.amount.StringFixed(2), ".", ",", 1)
}

// FormValue renders the price the way the listing edit form expects it, e.g. "10.50".
func (p Price) FormValue() string {
	return p.amount.StringFixed(2)
}

func (p Price) String() string {
	return p.Display()
}

// Adjuster applies a fixed percentage markup.
type Adjuster struct {
	percent decimal.Decimal
}

func NewAdjuster(percent float64) *Adjuster {
	return &Adjuster{percent: decimal.NewFromFloat(percent)}
}

func (a *Adjuster) Percent() decimal.Decimal {
	return a.percent
}

// Adjust returns amount + amount*percent/100 rounded to two places.
func (a *Adjuster) Adjust(amount decimal.Decimal) Price {
	markup := amount.Mul(a.percent).Div(decimal.NewFromInt(100))
	return NewPrice(amount.Add(markup))
}

// Quote parses text and applies the markup in one step. A result that is
// not above zero is rejected since the listing form would not accept it.
func (a *Adjuster) Quote(text string) (Price, error) {
	amount, err := Parse(text)
	if err != nil {
		return Price{}, err
	}

	price := a.Adjust(amount)
	if !price.Amount().IsPositive() {
		return Price{}, fmt.Errorf("%w: %q adjusts to %s", ErrInvalidPrice, text, price.FormValue())
	}
	return price, nil
}
