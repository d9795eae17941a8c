package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// FallbackBasePrice is used when no usable number can be found.
	FallbackBasePrice = 500
	// DefaultSizeLabel is attached to cart lines of products without sizes.
	DefaultSizeLabel = "Medium"
	// PriceOnRequest is shown for products with no pricing at all.
	PriceOnRequest = "Price on request"
)

var fallbackPrice = decimal.NewFromInt(FallbackBasePrice)

// Resolution is what the storefront shows and what the cart charges.
type Resolution struct {
	DisplayText string          `json:"displayText"`
	BasePrice   decimal.Decimal `json:"basePrice"`
}

// Selection is a concrete size/price pair ready to go into a cart line.
type Selection struct {
	Size      string
	UnitPrice decimal.Decimal
}

// Resolver formats prices with a currency symbol.
type Resolver struct {
	currency string
}

func NewResolver(currencySymbol string) Resolver {
	return Resolver{currency: currencySymbol}
}

// Resolve never fails: malformed or missing price data falls back to
// FallbackBasePrice.
func (r Resolver) Resolve(p Pricing) Resolution {
	switch p.Kind() {
	case KindFixedSizes:
		lo, hi := priceBounds(p.sizes)
		if lo.Equal(hi) {
			return Resolution{DisplayText: r.format(lo), BasePrice: lo}
		}
		return Resolution{DisplayText: r.format(lo) + " - " + r.format(hi), BasePrice: lo}
	case KindLegacyRange:
		return Resolution{DisplayText: p.text, BasePrice: ParseLegacyPrice(p.text)}
	case KindUnpriced:
		return Resolution{DisplayText: PriceOnRequest, BasePrice: fallbackPrice}
	}
	panic("pricing: unhandled kind " + string(p.Kind()))
}

// DefaultSelection is the first size for sized products, otherwise the base
// price under DefaultSizeLabel.
func (r Resolver) DefaultSelection(p Pricing) Selection {
	if p.Kind() == KindFixedSizes {
		first := p.sizes[0]
		return Selection{Size: first.Name, UnitPrice: first.Price}
	}
	return Selection{Size: DefaultSizeLabel, UnitPrice: r.Resolve(p).BasePrice}
}

// Select picks the named size. An empty name means the default selection.
// For products without sizes any label is accepted at the base price. The
// boolean is false when a sized product has no size with that name.
func (r Resolver) Select(p Pricing, size string) (Selection, bool) {
	size = strings.TrimSpace(size)
	if size == "" {
		return r.DefaultSelection(p), true
	}
	if p.Kind() != KindFixedSizes {
		return Selection{Size: size, UnitPrice: r.Resolve(p).BasePrice}, true
	}
	for _, entry := range p.sizes {
		if strings.EqualFold(entry.Name, size) {
			return Selection{Size: entry.Name, UnitPrice: entry.Price}, true
		}
	}
	return Selection{}, false
}

func (r Resolver) format(d decimal.Decimal) string {
	return r.currency + d.String()
}

func priceBounds(sizes []SizeEntry) (decimal.Decimal, decimal.Decimal) {
	lo, hi := sizes[0].Price, sizes[0].Price
	for _, s := range sizes[1:] {
		lo = decimal.Min(lo, s.Price)
		hi = decimal.Max(hi, s.Price)
	}
	return lo, hi
}

// ParseLegacyPrice returns the integer value of the first run of ASCII digits
// in text, or FallbackBasePrice when there is none. "₹500 - ₹800" is 500.
func ParseLegacyPrice(text string) decimal.Decimal {
	start := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return digitsToDecimal(text[start:i])
		}
	}
	if start >= 0 {
		return digitsToDecimal(text[start:])
	}
	return fallbackPrice
}

func digitsToDecimal(run string) decimal.Decimal {
	d, err := decimal.NewFromString(run)
	if err != nil {
		return fallbackPrice
	}
	return d
}
