package categories

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
)

const updatePositionSQL = `UPDATE "categories" SET "position"=$1,"updated_at"=$2 WHERE id = $3`

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	return NewRepository(gdb), mock
}

func TestUpdatePositionIssuesSingleRowUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(updatePositionSQL)).
		WithArgs(2, sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePosition(context.Background(), id, 2); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePositionMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(updatePositionSQL)).
		WithArgs(0, sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePosition(context.Background(), id, 0)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePositionDriverError(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	boom := errors.New("connection reset")

	mock.ExpectExec(regexp.QuoteMeta(updatePositionSQL)).
		WithArgs(1, sqlmock.AnyArg(), id.String()).
		WillReturnError(boom)

	if err := repo.UpdatePosition(context.Background(), id, 1); !errors.Is(err, boom) {
		t.Fatalf("expected driver error, got %v", err)
	}
}
