package types

import (
	"math/big"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// SalesRow mirrors the order_sales BigQuery schema. Amount columns are
// NUMERIC and stay NULL on status-only rows.
type SalesRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	OrderID       string             `bigquery:"order_id"`
	UserID        *string            `bigquery:"user_id"`
	CustomerEmail *string            `bigquery:"customer_email"`
	Status        string             `bigquery:"status"`
	PaymentMethod *string            `bigquery:"payment_method"`
	ItemCount     *int64             `bigquery:"item_count"`
	Subtotal      *big.Rat           `bigquery:"subtotal"`
	DeliveryFee   *big.Rat           `bigquery:"delivery_fee"`
	Total         *big.Rat           `bigquery:"total"`
	DeliveryDate  *time.Time         `bigquery:"delivery_date"`
	Items         cbigquery.NullJSON `bigquery:"items"`
}

// EnquiryRow mirrors the enquiries BigQuery schema.
type EnquiryRow struct {
	EventID     string     `bigquery:"event_id"`
	OccurredAt  time.Time  `bigquery:"occurred_at"`
	EnquiryID   string     `bigquery:"enquiry_id"`
	ProductName *string    `bigquery:"product_name"`
	EventDate   *time.Time `bigquery:"event_date"`
}
