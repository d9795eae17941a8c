package slideshow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type recordingRemover struct{ deleted []string }

func (r *recordingRemover) Delete(_ context.Context, url string) error {
	r.deleted = append(r.deleted, url)
	return nil
}

type flakyPositions struct {
	*Repository
	fail uuid.UUID
}

func (f flakyPositions) UpdatePosition(ctx context.Context, id uuid.UUID, position int) error {
	if id == f.fail {
		return errors.New("deadline exceeded")
	}
	return f.Repository.UpdatePosition(ctx, id, position)
}

type failureTally struct{ failed int }

func (f *failureTally) ReorderFailure(_ string, failed int) { f.failed += failed }

func newSlideshow(t *testing.T) (*Repository, *recordingRemover, Service) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.SlideshowImage{}))
	repo := NewRepository(conn)
	remover := &recordingRemover{}
	svc, err := NewService(ServiceParams{Repo: repo, Images: remover, Logger: logger.Nop()})
	require.NoError(t, err)
	return repo, remover, svc
}

func urls(items []SlideDTO) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.ImageURL)
	}
	return out
}

func TestCreateAppendsAndListOrders(t *testing.T) {
	_, _, svc := newSlideshow(t)
	ctx := context.Background()

	caption := "  Fresh every morning "
	first, err := svc.Create(ctx, "https://cdn.example.com/1.jpg", &caption)
	require.NoError(t, err)
	require.Equal(t, 0, first.Order)
	require.Equal(t, "Fresh every morning", *first.Caption)

	second, err := svc.Create(ctx, "https://cdn.example.com/2.jpg", nil)
	require.NoError(t, err)
	require.Equal(t, 1, second.Order)

	_, err = svc.Create(ctx, " ", nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}, urls(list))
}

func TestUpdateReplacesImageAndCleansOldOne(t *testing.T) {
	_, remover, svc := newSlideshow(t)
	ctx := context.Background()

	slide, err := svc.Create(ctx, "https://cdn.example.com/old.jpg", nil)
	require.NoError(t, err)

	next := "https://cdn.example.com/new.jpg"
	caption := "Diwali specials"
	updated, err := svc.Update(ctx, slide.ID, UpdateInput{ImageURL: &next, Caption: &caption})
	require.NoError(t, err)
	require.Equal(t, next, updated.ImageURL)
	require.Equal(t, caption, *updated.Caption)
	require.Equal(t, []string{"https://cdn.example.com/old.jpg"}, remover.deleted)

	empty := ""
	updated, err = svc.Update(ctx, slide.ID, UpdateInput{Caption: &empty})
	require.NoError(t, err)
	require.Nil(t, updated.Caption)
	require.Len(t, remover.deleted, 1)
}

func TestDeleteRemovesRowAndImage(t *testing.T) {
	repo, remover, svc := newSlideshow(t)
	ctx := context.Background()

	slide, err := svc.Create(ctx, "https://cdn.example.com/x.jpg", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, slide.ID))
	require.Equal(t, []string{"https://cdn.example.com/x.jpg"}, remover.deleted)

	_, err = repo.FindByID(ctx, slide.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReorderAndPartialFailure(t *testing.T) {
	repo, _, svc := newSlideshow(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		s, err := svc.Create(ctx, fmt.Sprintf("https://cdn.example.com/%d.jpg", i), nil)
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	res, err := svc.Reorder(ctx, 3, 0)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://cdn.example.com/3.jpg",
		"https://cdn.example.com/0.jpg",
		"https://cdn.example.com/1.jpg",
		"https://cdn.example.com/2.jpg",
	}, urls(res.Items))
	require.Equal(t, 4, res.Saved)

	tally := &failureTally{}
	flaky, err := NewService(ServiceParams{Repo: flakyPositions{Repository: repo, fail: ids[1]}, Metrics: tally, Logger: logger.Nop()})
	require.NoError(t, err)

	// current order: 3,0,1,2; move 3 back to the end
	res, err = flaky.Reorder(ctx, 0, 3)
	require.NoError(t, err)
	require.Equal(t, 3, res.Saved)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 1, tally.failed)

	stale, err := repo.FindByID(ctx, ids[1])
	require.NoError(t, err)
	require.Equal(t, 2, stale.Position)

	_, err = svc.Reorder(ctx, -1, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
