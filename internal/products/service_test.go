package product

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-backend/internal/pricing"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const testDefaultImage = "https://cdn.example.com/default.jpg"

type recordingRemover struct {
	deleted []string
	err     error
}

func (r *recordingRemover) Delete(_ context.Context, url string) error {
	r.deleted = append(r.deleted, url)
	return r.err
}

func newTestService(t *testing.T, images imageRemover) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(setupCatalogTestDB(t))
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Presenter: Presenter{Resolver: pricing.NewResolver("₹"), DefaultImageURL: testDefaultImage},
		Images:    images,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return svc, repo
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatalf("expected error without repository")
	}
	if _, err := NewService(ServiceParams{Repo: NewRepository(nil)}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

func TestCreateResolvesPriceAndDefaultImage(t *testing.T) {
	svc, _ := newTestService(t, nil)

	dto, err := svc.Create(context.Background(), CreateProductInput{
		Name:     " Chocolate Cake ",
		Category: "cakes",
		Sizes: []SizeInput{
			{Name: "Medium", Price: decimal.NewFromInt(800)},
			{Name: "Large", Price: decimal.NewFromInt(1200)},
		},
		IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Chocolate Cake", dto.Name)
	require.Equal(t, "₹800 - ₹1200", dto.Price.DisplayText)
	require.True(t, dto.Price.BasePrice.Equal(decimal.NewFromInt(800)))
	require.Equal(t, testDefaultImage, dto.Image)
	require.Empty(t, dto.Images)
	require.Len(t, dto.Sizes, 2)
}

func TestCreateLegacyRange(t *testing.T) {
	svc, _ := newTestService(t, nil)
	rng := "₹600 - ₹900"

	dto, err := svc.Create(context.Background(), CreateProductInput{
		Name:       "Black Forest",
		Category:   "cakes",
		PriceRange: &rng,
		ImageURLs:  []string{"", "https://cdn.example.com/bf.jpg"},
		IsActive:   true,
	})
	require.NoError(t, err)
	require.Equal(t, rng, dto.Price.DisplayText)
	require.True(t, dto.Price.BasePrice.Equal(decimal.NewFromInt(600)))
	require.Equal(t, "https://cdn.example.com/bf.jpg", dto.Image)
	require.Nil(t, dto.Sizes)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	blank := "   "

	cases := map[string]CreateProductInput{
		"missing name":     {Category: "cakes", Sizes: []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(1)}}},
		"missing category": {Name: "Cake", Sizes: []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(1)}}},
		"no pricing":       {Name: "Cake", Category: "cakes", PriceRange: &blank},
		"unknown category": {Name: "Cake", Category: "pies", Sizes: []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(1)}}},
		"duplicate size": {Name: "Cake", Category: "cakes", Sizes: []SizeInput{
			{Name: "Medium", Price: decimal.NewFromInt(1)},
			{Name: "medium", Price: decimal.NewFromInt(2)},
		}},
		"negative price":  {Name: "Cake", Category: "cakes", Sizes: []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(-1)}}},
		"blank size name": {Name: "Cake", Category: "cakes", Sizes: []SizeInput{{Name: " ", Price: decimal.NewFromInt(1)}}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, input)
			require.Error(t, err)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestGetHidesInactiveFromStorefront(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	dto, err := svc.Create(ctx, CreateProductInput{
		Name:     "Seasonal Cake",
		Category: "cakes",
		Sizes:    []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(900)}},
		IsActive: false,
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, dto.ID, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	admin, err := svc.Get(ctx, dto.ID, true)
	require.NoError(t, err)
	require.False(t, admin.Active)

	_, err = svc.Get(ctx, uuid.Nil, true)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateMergesProvidedFields(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:        "Vanilla Cake",
		Description: "Classic",
		Category:    "cakes",
		Sizes:       []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(700)}},
		IsActive:    true,
	})
	require.NoError(t, err)

	featured := true
	newName := "Vanilla Bean Cake"
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{Name: &newName, IsFeatured: &featured})
	require.NoError(t, err)
	require.Equal(t, newName, updated.Name)
	require.Equal(t, "Classic", updated.Description)
	require.True(t, updated.Featured)
	require.Equal(t, "₹700", updated.Price.DisplayText)

	rng := "₹650 onwards"
	noSizes := []SizeInput{}
	switched, err := svc.Update(ctx, created.ID, UpdateProductInput{Sizes: &noSizes, PriceRange: &rng})
	require.NoError(t, err)
	require.Equal(t, rng, switched.Price.DisplayText)
	require.True(t, switched.Price.BasePrice.Equal(decimal.NewFromInt(650)))

	empty := ""
	_, err = svc.Update(ctx, created.ID, UpdateProductInput{PriceRange: &empty})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "clearing the last pricing must fail")

	_, err = svc.Update(ctx, uuid.New(), UpdateProductInput{Name: &newName})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteRemovesImagesBestEffort(t *testing.T) {
	remover := &recordingRemover{err: errors.New("bucket unavailable")}
	svc, repo := newTestService(t, remover)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:      "Fruit Cake",
		Category:  "cakes",
		Sizes:     []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(750)}},
		ImageURLs: []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		IsActive:  true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}, remover.deleted)

	_, err = repo.FindByID(ctx, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}

func TestListAppliesStorefrontFilters(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, in := range []CreateProductInput{
		{Name: "Choco Chip", Category: "cookies", Sizes: []SizeInput{{Name: "Box", Price: decimal.NewFromInt(300)}}, IsActive: true},
		{Name: "Lemon Cake", Category: "cakes", Sizes: []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(650)}}, IsActive: true},
		{Name: "Hidden Cake", Category: "cakes", Sizes: []SizeInput{{Name: "Medium", Price: decimal.NewFromInt(650)}}},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	cakes, err := svc.List(ctx, ListFilters{CategoryKey: "cakes"})
	require.NoError(t, err)
	require.Len(t, cakes, 1)
	require.Equal(t, "Lemon Cake", cakes[0].Name)
	require.Equal(t, testDefaultImage, cakes[0].Image)
}
