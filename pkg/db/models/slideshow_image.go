package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlideshowImage is one slide of the homepage carousel.
type SlideshowImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ImageURL  string    `gorm:"column:image_url;not null"`
	Caption   *string   `gorm:"column:caption"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *SlideshowImage) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
