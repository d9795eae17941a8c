package slideshow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]models.SlideshowImage, error) {
	var rows []models.SlideshowImage
	err := r.db.WithContext(ctx).Order("position").Order("created_at").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SlideshowImage, error) {
	var img models.SlideshowImage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "slide not found")
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SlideshowImage{}).Count(&count).Error
	return count, err
}

func (r *Repository) Create(ctx context.Context, img *models.SlideshowImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *Repository) Save(ctx context.Context, img *models.SlideshowImage) error {
	return r.db.WithContext(ctx).Save(img).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SlideshowImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "slide not found")
	}
	return nil
}

func (r *Repository) UpdatePosition(ctx context.Context, id uuid.UUID, position int) error {
	res := r.db.WithContext(ctx).
		Model(&models.SlideshowImage{}).
		Where("id = ?", id).
		Updates(map[string]any{"position": position, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "slide not found")
	}
	return nil
}
