package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

// Service exposes catalog reads for the storefront and writes for admins.
type Service interface {
	List(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SizeInput is one priced size on a create or update payload.
type SizeInput struct {
	Name  string
	Price decimal.Decimal
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Sizes       []SizeInput
	PriceRange  *string
	ImageURLs   []string
	IsFeatured  bool
	IsActive    bool
}

// UpdateProductInput holds optional mutation values for a product. A non-nil
// empty Sizes slice clears the sizes; an empty PriceRange clears the range.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Sizes       *[]SizeInput
	PriceRange  *string
	ImageURLs   *[]string
	IsFeatured  *bool
	IsActive    *bool
}

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters ListFilters) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	CategoryExists(ctx context.Context, key string) (bool, error)
}

// imageRemover deletes stored images; internal/media implements it.
type imageRemover interface {
	Delete(ctx context.Context, url string) error
}

type ServiceParams struct {
	Repo      repository
	Presenter Presenter
	Images    imageRemover
	Logger    *logger.Logger
}

type service struct {
	repo      repository
	presenter Presenter
	images    imageRemover
	logg      *logger.Logger
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		presenter: params.Presenter,
		images:    params.Images,
		logg:      params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return s.presenter.FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := s.presenter.FromModel(*m)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	m := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		CategoryKey: strings.TrimSpace(input.Category),
		PriceRange:  normalizeRange(input.PriceRange),
		ImageURLs:   cleanURLs(input.ImageURLs),
		IsFeatured:  input.IsFeatured,
		IsActive:    input.IsActive,
	}
	sizes, err := toSizes(input.Sizes)
	if err != nil {
		return nil, err
	}
	m.Sizes = sizes

	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	ctx = s.logg.WithField(ctx, "product_id", m.ID.String())
	s.logg.Info(ctx, "product created")
	dto := s.presenter.FromModel(*m)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		m.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		m.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		m.CategoryKey = strings.TrimSpace(*input.Category)
	}
	if input.Sizes != nil {
		sizes, err := toSizes(*input.Sizes)
		if err != nil {
			return nil, err
		}
		m.Sizes = sizes
	}
	if input.PriceRange != nil {
		m.PriceRange = normalizeRange(input.PriceRange)
	}
	if input.ImageURLs != nil {
		m.ImageURLs = cleanURLs(*input.ImageURLs)
	}
	if input.IsFeatured != nil {
		m.IsFeatured = *input.IsFeatured
	}
	if input.IsActive != nil {
		m.IsActive = *input.IsActive
	}

	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	dto := s.presenter.FromModel(*m)
	return &dto, nil
}

// Delete removes the product, then makes a best effort to drop its images.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	ctx = s.logg.WithField(ctx, "product_id", id.String())
	s.logg.Info(ctx, "product deleted")
	if s.images == nil {
		return nil
	}
	for _, u := range m.ImageURLs {
		if err := s.images.Delete(ctx, u); err != nil {
			s.logg.WarnErr(s.logg.WithField(ctx, "image_url", u), "product image cleanup failed", err)
		}
	}
	return nil
}

func (s *service) validate(ctx context.Context, m *models.Product) error {
	if m.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if m.CategoryKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if len(m.Sizes) == 0 && m.PriceRange == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sizes or priceRange is required")
	}
	ok, err := s.repo.CategoryExists(ctx, m.CategoryKey)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown category %q", m.CategoryKey).
			WithDetails(map[string]any{"category": m.CategoryKey})
	}
	return nil
}

func toSizes(in []SizeInput) ([]models.SizeEntry, error) {
	if len(in) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]models.SizeEntry, 0, len(in))
	for _, s := range in {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size name is required")
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "duplicate size %q", name)
		}
		seen[key] = struct{}{}
		if s.Price.IsNegative() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "price for size %q must not be negative", name)
		}
		out = append(out, models.SizeEntry{Name: name, Price: s.Price})
	}
	return out, nil
}

func normalizeRange(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
