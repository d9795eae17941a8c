package categories

import (
	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Order       int       `json:"order"`
	Active      bool      `json:"active"`
}

func FromModel(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Key:         c.Key,
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		Order:       c.Position,
		Active:      c.IsActive,
	}
}

// ReorderResult is the new sequence plus how many position writes failed.
type ReorderResult struct {
	Items  []CategoryDTO `json:"items"`
	Saved  int           `json:"saved"`
	Failed int           `json:"failed"`
}
