package analytics

import (
	"context"

	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// Counts are the headline figures of the admin dashboard.
type Counts struct {
	TotalProducts    int64 `json:"totalProducts"`
	FeaturedProducts int64 `json:"featuredProducts"`
	TotalEnquiries   int64 `json:"totalEnquiries"`
	NewEnquiries     int64 `json:"newEnquiries"`
}

// CountsReader reads dashboard figures from the primary database.
type CountsReader interface {
	Counts(ctx context.Context) (Counts, error)
	RecentEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error)
}

type countsRepository struct {
	db *gorm.DB
}

func NewCountsRepository(db *gorm.DB) CountsReader {
	return &countsRepository{db: db}
}

func (r *countsRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Product{}).Count(&c.TotalProducts).Error; err != nil {
		return Counts{}, err
	}
	if err := db.Model(&models.Product{}).Where("is_featured = ?", true).Count(&c.FeaturedProducts).Error; err != nil {
		return Counts{}, err
	}
	if err := db.Model(&models.Enquiry{}).Count(&c.TotalEnquiries).Error; err != nil {
		return Counts{}, err
	}
	if err := db.Model(&models.Enquiry{}).Where("status = ?", enums.EnquiryStatusNew).Count(&c.NewEnquiries).Error; err != nil {
		return Counts{}, err
	}
	return c, nil
}

// RecentEnquiries returns the newest enquiries first.
func (r *countsRepository) RecentEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error) {
	var rows []models.Enquiry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
