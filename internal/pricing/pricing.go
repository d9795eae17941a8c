// Package pricing resolves what a product costs and how that price is shown.
package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

// Kind discriminates the Pricing union.
type Kind string

const (
	KindFixedSizes  Kind = "fixed_sizes"
	KindLegacyRange Kind = "legacy_range"
	KindUnpriced    Kind = "unpriced"
)

// SizeEntry is a named size and its price.
type SizeEntry struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Pricing is FixedSizes(sizes) | LegacyRange(text) | Unpriced. Construct it
// with the helpers below; the zero value is Unpriced.
type Pricing struct {
	kind  Kind
	sizes []SizeEntry
	text  string
}

// FixedSizes builds a size list pricing. An empty list collapses to Unpriced.
func FixedSizes(sizes ...SizeEntry) Pricing {
	if len(sizes) == 0 {
		return Unpriced()
	}
	cp := make([]SizeEntry, len(sizes))
	copy(cp, sizes)
	return Pricing{kind: KindFixedSizes, sizes: cp}
}

// LegacyRange wraps an admin-authored free-text price such as "₹500 - ₹800".
func LegacyRange(text string) Pricing {
	return Pricing{kind: KindLegacyRange, text: text}
}

func Unpriced() Pricing {
	return Pricing{kind: KindUnpriced}
}

// FromProduct lifts the optional storage columns into the union. Sizes take
// precedence over a price range when both are set.
func FromProduct(p models.Product) Pricing {
	if len(p.Sizes) > 0 {
		sizes := make([]SizeEntry, 0, len(p.Sizes))
		for _, s := range p.Sizes {
			sizes = append(sizes, SizeEntry{Name: s.Name, Price: s.Price})
		}
		return FixedSizes(sizes...)
	}
	if p.PriceRange != nil {
		return LegacyRange(*p.PriceRange)
	}
	return Unpriced()
}

func (p Pricing) Kind() Kind {
	if p.kind == "" {
		return KindUnpriced
	}
	return p.kind
}

// Sizes returns a copy of the size list (nil unless FixedSizes).
func (p Pricing) Sizes() []SizeEntry {
	if p.kind != KindFixedSizes {
		return nil
	}
	cp := make([]SizeEntry, len(p.sizes))
	copy(cp, p.sizes)
	return cp
}

// RangeText returns the raw legacy text ("" unless LegacyRange).
func (p Pricing) RangeText() string {
	if p.kind != KindLegacyRange {
		return ""
	}
	return p.text
}

type pricingJSON struct {
	Kind       Kind        `json:"kind"`
	Sizes      []SizeEntry `json:"sizes,omitempty"`
	PriceRange string      `json:"priceRange,omitempty"`
}

func (p Pricing) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricingJSON{Kind: p.Kind(), Sizes: p.sizes, PriceRange: p.RangeText()})
}

func (p *Pricing) UnmarshalJSON(data []byte) error {
	var raw pricingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case KindFixedSizes:
		*p = FixedSizes(raw.Sizes...)
	case KindLegacyRange:
		*p = LegacyRange(raw.PriceRange)
	case KindUnpriced, "":
		*p = Unpriced()
	default:
		return fmt.Errorf("unknown pricing kind %q", raw.Kind)
	}
	return nil
}
