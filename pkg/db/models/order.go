package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// CustomerInfo is the contact and delivery snapshot captured at checkout.
type CustomerInfo struct {
	Name    string `gorm:"column:name;not null" json:"name"`
	Email   string `gorm:"column:email;not null;index" json:"email"`
	Phone   string `gorm:"column:phone;not null" json:"phone"`
	Address string `gorm:"column:address;not null" json:"address"`
}

// Order is written once at checkout. Only Status moves afterwards.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	Customer      CustomerInfo        `gorm:"embedded;embeddedPrefix:customer_"`
	Items         []CartLine          `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee   decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	DeliveryDate  *time.Time          `gorm:"column:delivery_date"`
	Notes         *string             `gorm:"column:notes"`
	OrderDate     time.Time           `gorm:"column:order_date;not null;index"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
