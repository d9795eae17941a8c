// Package slideshow manages the homepage carousel.
package slideshow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/internal/ordering"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const collection = "slideshow"

type Service interface {
	List(ctx context.Context) ([]SlideDTO, error)
	Create(ctx context.Context, imageURL string, caption *string) (*SlideDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*SlideDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, src, dst int) (*ReorderResult, error)
}

type SlideDTO struct {
	ID       uuid.UUID `json:"id"`
	ImageURL string    `json:"imageUrl"`
	Caption  *string   `json:"caption,omitempty"`
	Order    int       `json:"order"`
}

type ReorderResult struct {
	Items  []SlideDTO `json:"items"`
	Saved  int        `json:"saved"`
	Failed int        `json:"failed"`
}

// UpdateInput replaces the image and/or caption. An empty caption clears it.
type UpdateInput struct {
	ImageURL *string
	Caption  *string
}

type repository interface {
	List(ctx context.Context) ([]models.SlideshowImage, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SlideshowImage, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, img *models.SlideshowImage) error
	Save(ctx context.Context, img *models.SlideshowImage) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) error
}

type imageRemover interface {
	Delete(ctx context.Context, url string) error
}

type Metrics interface {
	ReorderFailure(collection string, failed int)
}

type noopMetrics struct{}

func (noopMetrics) ReorderFailure(string, int) {}

type ServiceParams struct {
	Repo    repository
	Images  imageRemover
	Metrics Metrics
	Logger  *logger.Logger
}

type service struct {
	repo    repository
	images  imageRemover
	metrics Metrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("slideshow repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &service{repo: params.Repo, images: params.Images, metrics: metrics, logg: params.Logger}, nil
}

func toDTO(m models.SlideshowImage) SlideDTO {
	return SlideDTO{ID: m.ID, ImageURL: m.ImageURL, Caption: m.Caption, Order: m.Position}
}

func (s *service) List(ctx context.Context) ([]SlideDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slides")
	}
	out := make([]SlideDTO, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDTO(m))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, imageURL string, caption *string) (*SlideDTO, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "imageUrl is required")
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count slides")
	}
	img := &models.SlideshowImage{ImageURL: imageURL, Caption: trimmedOrNil(caption), Position: int(count)}
	if err := s.repo.Create(ctx, img); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create slide")
	}
	dto := toDTO(*img)
	return &dto, nil
}

// Update swaps the image or caption. A replaced image is removed from storage
// best effort.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*SlideDTO, error) {
	img, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var replaced string
	if input.ImageURL != nil {
		next := strings.TrimSpace(*input.ImageURL)
		if next == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "imageUrl must not be empty")
		}
		if next != img.ImageURL {
			replaced = img.ImageURL
		}
		img.ImageURL = next
	}
	if input.Caption != nil {
		img.Caption = trimmedOrNil(input.Caption)
	}
	if err := s.repo.Save(ctx, img); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update slide")
	}
	if replaced != "" {
		s.dropImage(ctx, replaced)
	}
	dto := toDTO(*img)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	img, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.dropImage(ctx, img.ImageURL)
	return nil
}

func (s *service) Reorder(ctx context.Context, src, dst int) (*ReorderResult, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slides")
	}
	if src < 0 || src >= len(rows) || dst < 0 || dst >= len(rows) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "move %d -> %d is out of range", src, dst).
			WithDetails(map[string]any{"count": len(rows)})
	}

	moved := ordering.Reorder(rows, src, dst, func(m *models.SlideshowImage, pos int) { m.Position = pos })
	saved, perr := ordering.PersistPositions(ctx, moved, func(ctx context.Context, m models.SlideshowImage) error {
		return s.repo.UpdatePosition(ctx, m.ID, m.Position)
	})

	result := &ReorderResult{Items: make([]SlideDTO, 0, len(moved)), Saved: saved, Failed: len(moved) - saved}
	for _, m := range moved {
		result.Items = append(result.Items, toDTO(m))
	}
	if perr != nil {
		s.metrics.ReorderFailure(collection, result.Failed)
		s.logg.WarnErr(s.logg.WithField(ctx, "failed", result.Failed), "slide positions partially saved", perr)
	}
	return result, nil
}

func (s *service) dropImage(ctx context.Context, url string) {
	if s.images == nil || url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "image_url", url), "slide image cleanup failed", err)
	}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
