package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/internal/pricing"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

// ProductDTO is the catalog shape served to the storefront and admin.
type ProductDTO struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Sizes       []pricing.SizeEntry `json:"sizes,omitempty"`
	PriceRange  *string             `json:"priceRange,omitempty"`
	Price       pricing.Resolution  `json:"price"`
	Image       string              `json:"image"`
	Images      []string            `json:"images"`
	Featured    bool                `json:"featured"`
	Active      bool                `json:"active"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Presenter turns stored products into DTOs with resolved prices.
type Presenter struct {
	Resolver        pricing.Resolver
	DefaultImageURL string
}

func (p Presenter) FromModel(m models.Product) ProductDTO {
	pr := pricing.FromProduct(m)
	images := make([]string, 0, len(m.ImageURLs))
	for _, u := range m.ImageURLs {
		if u != "" {
			images = append(images, u)
		}
	}
	cover := p.DefaultImageURL
	if len(images) > 0 {
		cover = images[0]
	}
	return ProductDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.CategoryKey,
		Sizes:       pr.Sizes(),
		PriceRange:  m.PriceRange,
		Price:       p.Resolver.Resolve(pr),
		Image:       cover,
		Images:      images,
		Featured:    m.IsFeatured,
		Active:      m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (p Presenter) FromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, m := range rows {
		out = append(out, p.FromModel(m))
	}
	return out
}
