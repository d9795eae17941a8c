package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

// Line is one product+size row of a cart.
type Line = models.CartLine

// LineInput describes an add-to-cart request after price resolution.
type LineInput struct {
	ProductID     string
	Name          string
	Image         string
	UnitPrice     decimal.Decimal
	Quantity      int
	Size          string
	Customization string
}

// Store is an explicitly owned cart: an ordered list of lines merged on
// (ProductID, Size). It is not safe for concurrent use; callers serialize
// access.
type Store struct {
	lines []Line
	now   func() time.Time
}

type StoreOption func(*Store)

// WithClock overrides the clock used to stamp new lines.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(lines []Line, opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.lines = make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			s.lines = append(s.lines, l)
		}
	}
	return s
}

// LineID derives the identifier of a line created at the given instant.
func LineID(productID, size string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", productID, size, at.UnixMilli())
}

// Add merges into the line with the same product and size or appends a new
// line priced at in.UnitPrice. Quantities below one are ignored.
func (s *Store) Add(in LineInput) (Line, bool) {
	if in.Quantity <= 0 {
		return Line{}, false
	}
	for i := range s.lines {
		l := &s.lines[i]
		if l.ProductID != in.ProductID || l.Size != in.Size {
			continue
		}
		l.Quantity += in.Quantity
		if l.Customization == "" {
			l.Customization = in.Customization
		}
		return *l, true
	}

	created := s.now().UTC()
	line := Line{
		ID:            LineID(in.ProductID, in.Size, created),
		ProductID:     in.ProductID,
		Name:          in.Name,
		Image:         in.Image,
		UnitPrice:     in.UnitPrice,
		Quantity:      in.Quantity,
		Size:          in.Size,
		Customization: in.Customization,
		CreatedAt:     created,
	}
	s.lines = append(s.lines, line)
	return line, true
}

// SetQuantity overwrites a line's quantity; zero or less removes it. It
// reports whether the cart changed.
func (s *Store) SetQuantity(lineID string, quantity int) bool {
	if quantity <= 0 {
		return s.Remove(lineID)
	}
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			if s.lines[i].Quantity == quantity {
				return false
			}
			s.lines[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Remove drops a line. Removing an unknown id is a no-op.
func (s *Store) Remove(lineID string) bool {
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) Clear() {
	s.lines = s.lines[:0]
}

// Lines returns a copy in display order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Line looks a line up by id.
func (s *Store) Line(lineID string) (Line, bool) {
	for _, l := range s.lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

func (s *Store) Len() int {
	return len(s.lines)
}

func (s *Store) IsEmpty() bool {
	return len(s.lines) == 0
}

// Subtotal is the sum of unit price times quantity over all lines.
func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ItemCount sums quantities, not lines.
func (s *Store) ItemCount() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Clone returns an independent copy sharing the clock.
func (s *Store) Clone() *Store {
	return &Store{lines: s.Lines(), now: s.now}
}
