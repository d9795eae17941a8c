package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// OrderLine is the trimmed line snapshot carried on order events.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderCreatedEvent is emitted in the checkout transaction.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	UserID        *uuid.UUID          `json:"userId,omitempty"`
	CustomerName  string              `json:"customerName"`
	CustomerEmail string              `json:"customerEmail"`
	Lines         []OrderLine         `json:"lines"`
	ItemCount     int                 `json:"itemCount"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DeliveryFee   decimal.Decimal     `json:"deliveryFee"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	DeliveryDate  *time.Time          `json:"deliveryDate,omitempty"`
	OrderDate     time.Time           `json:"orderDate"`
}

// OrderStatusChangedEvent is emitted when an admin moves an order along.
type OrderStatusChangedEvent struct {
	OrderID      uuid.UUID         `json:"orderId"`
	CustomerName string            `json:"customerName"`
	From         enums.OrderStatus `json:"from"`
	To           enums.OrderStatus `json:"to"`
	ChangedAt    time.Time         `json:"changedAt"`
}

// EnquirySubmittedEvent replaces the enquiry email with an admin notification.
type EnquirySubmittedEvent struct {
	EnquiryID   uuid.UUID  `json:"enquiryId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	ProductName *string    `json:"productName,omitempty"`
	EventDate   *time.Time `json:"eventDate,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
}
