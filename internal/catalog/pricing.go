package catalog

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// PriceFormatter renders provider prices for one locale. It is safe for
// concurrent use.
type PriceFormatter struct {
	tag language.Tag
}

// NewPriceFormatter builds a formatter for tag.
func NewPriceFormatter(tag language.Tag) *PriceFormatter {
	return &PriceFormatter{tag: tag}
}

// Format renders amount with its ISO currency code, e.g. "USD 1,200.00" for
// American English.
func (f *PriceFormatter) Format(amount float64, code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: currency %q", shared.ErrValidation, code)
	}
	return message.NewPrinter(f.tag).Sprint(currency.ISO(unit.Amount(amount))), nil
}

// Decorate fills the computed price fields of every provider of course.
func (f *PriceFormatter) Decorate(course *Course) {
	if course == nil {
		return
	}
	for i := range course.Providers {
		f.DecorateProvider(&course.Providers[i])
	}
}

// DecorateProvider fills the computed price fields of p. A provider with an
// unknown currency keeps its amounts but gets no display text.
func (f *PriceFormatter) DecorateProvider(p *Provider) {
	p.DiscountedPrice = DiscountedPrice(p.Price, p.Discount)
	p.DisplayPrice, p.DisplayDiscountedPrice = "", ""
	if text, err := f.Format(p.Price, p.Currency); err == nil {
		p.DisplayPrice = text
	}
	if text, err := f.Format(p.DiscountedPrice, p.Currency); err == nil {
		p.DisplayDiscountedPrice = text
	}
}

// DiscountedPrice applies a percentage discount and rounds to cents.
func DiscountedPrice(price, discount float64) float64 {
	switch {
	case discount <= 0:
		return price
	case discount >= 100:
		return 0
	}
	return math.Round(price*(100-discount)) / 100
}
