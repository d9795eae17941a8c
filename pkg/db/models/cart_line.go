package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is the persisted shape of a cart line. It is stored as JSON in the
// profile cart column, in guest cart blobs, and as the order item snapshot.
type CartLine struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Image         string          `json:"image,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
	Size          string          `json:"size"`
	Customization string          `json:"customization,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
