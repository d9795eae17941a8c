package enquiries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
)

// Repository defines persistence operations for the enquiries table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, e *models.Enquiry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Enquiry, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Enquiry, string, error)
	ListAll(ctx context.Context, filters ListFilters) ([]models.Enquiry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EnquiryStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RateLimiter is a fixed window counter; pkg/redis implements it.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ProductReader resolves the product an enquiry is about.
type ProductReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
