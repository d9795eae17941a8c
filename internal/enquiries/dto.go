package enquiries

import (
	"time"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

type ListFilters struct {
	Status *enums.EnquiryStatus
	Since  *time.Time
	Query  string
}

type EnquiryDTO struct {
	ID          uuid.UUID           `json:"id"`
	ProductID   *uuid.UUID          `json:"productId,omitempty"`
	ProductName *string             `json:"productName,omitempty"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	EventDate   *time.Time          `json:"eventDate,omitempty"`
	Size        string              `json:"size,omitempty"`
	Message     string              `json:"message"`
	Status      enums.EnquiryStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type EnquiryList struct {
	Enquiries  []EnquiryDTO `json:"enquiries"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func FromModel(e models.Enquiry) EnquiryDTO {
	return EnquiryDTO{
		ID:          e.ID,
		ProductID:   e.ProductID,
		ProductName: e.ProductName,
		Name:        e.Name,
		Email:       e.Email,
		Phone:       e.Phone,
		EventDate:   e.EventDate,
		Size:        e.Size,
		Message:     e.Message,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
	}
}
