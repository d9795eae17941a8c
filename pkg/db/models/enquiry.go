package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// Enquiry is a custom-cake or general question sent from the storefront.
type Enquiry struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   *uuid.UUID          `gorm:"column:product_id;type:uuid"`
	ProductName *string             `gorm:"column:product_name"`
	Name        string              `gorm:"column:name;not null"`
	Email       string              `gorm:"column:email;not null"`
	Phone       string              `gorm:"column:phone;not null"`
	EventDate   *time.Time          `gorm:"column:event_date"`
	Size        string              `gorm:"column:size;not null;default:''"`
	Message     string              `gorm:"column:message;not null"`
	Status      enums.EnquiryStatus `gorm:"column:status;type:text;not null;default:'new'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Enquiry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
