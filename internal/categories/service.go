package categories

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/internal/ordering"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const collection = "categories"

// Service manages storefront categories and their display order.
type Service interface {
	List(ctx context.Context, includeInactive bool) ([]CategoryDTO, error)
	Create(ctx context.Context, input CreateInput) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, src, dst int) (*ReorderResult, error)
}

// CreateInput describes a new category. Key defaults to a slug of Name.
type CreateInput struct {
	Key         string
	Name        string
	Description string
	ImageURL    *string
	IsActive    bool
}

// UpdateInput carries optional changes. The key is immutable because
// products reference it.
type UpdateInput struct {
	Name        *string
	Description *string
	ImageURL    *string
	IsActive    *bool
}

type repository interface {
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	KeyExists(ctx context.Context, key string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, c *models.Category) error
	Save(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) error
}

// Metrics receives reorder failures; pkg/metrics implements it.
type Metrics interface {
	ReorderFailure(collection string, failed int)
}

type noopMetrics struct{}

func (noopMetrics) ReorderFailure(string, int) {}

type ServiceParams struct {
	Repo    repository
	Metrics Metrics
	Logger  *logger.Logger
}

type service struct {
	repo    repository
	metrics Metrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &service{repo: params.Repo, metrics: metrics, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, FromModel(c))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	key := Slug(input.Key)
	if key == "" {
		key = Slug(name)
	}
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "key must contain letters or digits")
	}

	exists, err := s.repo.KeyExists(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category key")
	}
	if exists {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "category %q already exists", key).
			WithDetails(map[string]any{"key": key})
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count categories")
	}

	c := &models.Category{
		Key:         key,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    trimmedOrNil(input.ImageURL),
		Position:    int(count),
		IsActive:    input.IsActive,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	s.logg.Info(s.logg.WithField(ctx, "category_key", key), "category created")
	dto := FromModel(*c)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		c.Name = name
	}
	if input.Description != nil {
		c.Description = strings.TrimSpace(*input.Description)
	}
	if input.ImageURL != nil {
		c.ImageURL = trimmedOrNil(input.ImageURL)
	}
	if input.IsActive != nil {
		c.IsActive = *input.IsActive
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	dto := FromModel(*c)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Reorder moves the category at src to dst across the full admin list and
// persists every position independently. Failed writes are counted, not
// rolled back; the next reorder rewrites them.
func (s *service) Reorder(ctx context.Context, src, dst int) (*ReorderResult, error) {
	rows, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if src < 0 || src >= len(rows) || dst < 0 || dst >= len(rows) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "move %d -> %d is out of range", src, dst).
			WithDetails(map[string]any{"count": len(rows)})
	}

	moved := ordering.Reorder(rows, src, dst, func(c *models.Category, pos int) { c.Position = pos })
	saved, perr := ordering.PersistPositions(ctx, moved, func(ctx context.Context, c models.Category) error {
		return s.repo.UpdatePosition(ctx, c.ID, c.Position)
	})

	result := &ReorderResult{Items: make([]CategoryDTO, 0, len(moved)), Saved: saved, Failed: len(moved) - saved}
	for _, c := range moved {
		result.Items = append(result.Items, FromModel(c))
	}
	if perr != nil {
		s.metrics.ReorderFailure(collection, result.Failed)
		s.logg.WarnErr(s.logg.WithFields(ctx, map[string]any{
			"collection": collection,
			"failed":     result.Failed,
		}), "reorder positions partially saved", perr)
	}
	return result, nil
}

// Slug lowercases s and joins its letter and digit runs with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
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
