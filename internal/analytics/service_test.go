package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
)

type stubSales struct {
	summary *types.SalesSummary
	err     error
	last    types.SalesRange
}

func (s *stubSales) Summary(_ context.Context, r types.SalesRange) (*types.SalesSummary, error) {
	s.last = r
	return s.summary, s.err
}

func setupDashboardDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}, &models.Enquiry{}))

	for i, featured := range []bool{true, false, true} {
		require.NoError(t, conn.Create(&models.Product{
			Name:        fmt.Sprintf("Cake %d", i),
			CategoryKey: "cakes",
			IsFeatured:  featured,
			IsActive:    i != 1,
		}).Error)
	}

	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	statuses := []enums.EnquiryStatus{
		enums.EnquiryStatusNew, enums.EnquiryStatusContacted, enums.EnquiryStatusNew,
		enums.EnquiryStatusResolved, enums.EnquiryStatusNew, enums.EnquiryStatusNew,
	}
	for i, status := range statuses {
		require.NoError(t, conn.Create(&models.Enquiry{
			Name:      fmt.Sprintf("Customer %d", i),
			Email:     "c@example.com",
			Phone:     "555",
			Message:   "birthday cake",
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}
	return conn
}

func dashboardRange() types.SalesRange {
	end := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	return types.SalesRange{Start: end.AddDate(0, 0, -30), End: end}
}

func TestDashboardCountsAndRecentEnquiries(t *testing.T) {
	svc, err := NewService(ServiceParams{Counts: NewCountsRepository(setupDashboardDB(t))})
	require.NoError(t, err)

	got, err := svc.Dashboard(context.Background(), dashboardRange())
	require.NoError(t, err)

	require.Equal(t, Counts{TotalProducts: 3, FeaturedProducts: 2, TotalEnquiries: 6, NewEnquiries: 4}, got.Counts)
	require.Len(t, got.RecentEnquiries, 5)
	require.Equal(t, "Customer 5", got.RecentEnquiries[0].Name)
	require.Equal(t, "Customer 1", got.RecentEnquiries[4].Name)
	require.Nil(t, got.Sales)
	require.False(t, got.SalesUnavailable)
}

func TestDashboardIncludesSales(t *testing.T) {
	sales := &stubSales{summary: &types.SalesSummary{Orders: 4, Revenue: decimal.NewFromInt(3200)}}
	svc, err := NewService(ServiceParams{Counts: NewCountsRepository(setupDashboardDB(t)), Sales: sales})
	require.NoError(t, err)

	r := dashboardRange()
	got, err := svc.Dashboard(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, r, sales.last)
	require.NotNil(t, got.Sales)
	require.Equal(t, int64(4), got.Sales.Orders)
}

func TestDashboardSalesFailureIsSoft(t *testing.T) {
	sales := &stubSales{err: errors.New("bigquery down")}
	svc, err := NewService(ServiceParams{Counts: NewCountsRepository(setupDashboardDB(t)), Sales: sales})
	require.NoError(t, err)

	got, err := svc.Dashboard(context.Background(), dashboardRange())
	require.NoError(t, err)
	require.True(t, got.SalesUnavailable)
	require.Nil(t, got.Sales)
	require.Equal(t, int64(6), got.TotalEnquiries)
}

func TestDashboardRejectsInvalidRange(t *testing.T) {
	sales := &stubSales{err: pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")}
	svc, err := NewService(ServiceParams{Counts: NewCountsRepository(setupDashboardDB(t)), Sales: sales})
	require.NoError(t, err)

	_, err = svc.Dashboard(context.Background(), dashboardRange())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewServiceRequiresCounts(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
