package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Order{}, &models.OutboxEvent{}))
	return conn
}

var baseDay = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

func seedOrder(t *testing.T, conn *gorm.DB, name string, status enums.OrderStatus, at time.Time, userID *uuid.UUID) models.Order {
	t.Helper()
	order := models.Order{
		UserID: userID,
		Customer: models.CustomerInfo{
			Name:    name,
			Email:   fmt.Sprintf("%s@example.com", name),
			Phone:   "9876543210",
			Address: "12 Baker Street",
		},
		Items: []models.CartLine{{
			ID: "p-Medium-1", ProductID: "p", Name: "Chocolate Cake",
			UnitPrice: decimal.NewFromInt(800), Quantity: 2, Size: "Medium",
		}},
		Subtotal:      decimal.NewFromInt(1600),
		DeliveryFee:   decimal.NewFromInt(50),
		TotalAmount:   decimal.NewFromInt(1650),
		Status:        status,
		PaymentMethod: enums.PaymentMethodCash,
		OrderDate:     at,
	}
	require.NoError(t, NewRepository(conn).Create(context.Background(), &order))
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	created := seedOrder(t, conn, "asha", enums.OrderStatusPending, baseDay, nil)

	got, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "asha", got.Customer.Name)
	require.Len(t, got.Items, 1)
	require.True(t, got.TotalAmount.Equal(decimal.NewFromInt(1650)))

	_, err = repo.FindByID(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryListFiltersAndPages(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := uuid.New()

	seedOrder(t, conn, "asha", enums.OrderStatusPending, baseDay, &user)
	seedOrder(t, conn, "bilal", enums.OrderStatusDelivered, baseDay.Add(time.Hour), nil)
	seedOrder(t, conn, "chitra", enums.OrderStatusPending, baseDay.Add(2*time.Hour), &user)

	rows, next, err := repo.List(ctx, ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "chitra", rows[0].Customer.Name)
	require.Equal(t, "bilal", rows[1].Customer.Name)
	require.NotEmpty(t, next)

	rows, next, err = repo.List(ctx, ListFilters{}, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "asha", rows[0].Customer.Name)
	require.Empty(t, next)

	pending := enums.OrderStatusPending
	rows, _, err = repo.List(ctx, ListFilters{Status: &pending}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, _, err = repo.List(ctx, ListFilters{Query: "BILAL@"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	since := baseDay.Add(30 * time.Minute)
	rows, _, err = repo.List(ctx, ListFilters{Since: &since}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, _, err = repo.List(ctx, ListFilters{UserID: &user}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, _, err = repo.List(ctx, ListFilters{}, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRepositoryUpdateStatus(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	order := seedOrder(t, conn, "asha", enums.OrderStatusPending, baseDay, nil)

	require.NoError(t, repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusConfirmed))
	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, got.Status)

	err = repo.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusReady)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
