package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// ListFilters narrow the admin and customer order lists.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	Since  *time.Time
	Query  string
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	UserID        *uuid.UUID          `json:"userId,omitempty"`
	CustomerInfo  models.CustomerInfo `json:"customerInfo"`
	Items         []models.CartLine   `json:"items"`
	ItemCount     int                 `json:"itemCount"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DeliveryFee   decimal.Decimal     `json:"deliveryFee"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	DeliveryDate  *time.Time          `json:"deliveryDate,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	OrderDate     time.Time           `json:"orderDate"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func FromModel(o models.Order) OrderDTO {
	items := o.Items
	if items == nil {
		items = []models.CartLine{}
	}
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return OrderDTO{
		ID:            o.ID,
		UserID:        o.UserID,
		CustomerInfo:  o.Customer,
		Items:         items,
		ItemCount:     count,
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		DeliveryDate:  o.DeliveryDate,
		Notes:         o.Notes,
		OrderDate:     o.OrderDate,
		UpdatedAt:     o.UpdatedAt,
	}
}
