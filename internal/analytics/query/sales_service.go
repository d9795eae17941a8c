package query

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	"github.com/sweetdelights/bakery-backend/pkg/bigquery"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
)

const dailySalesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  COUNT(DISTINCT order_id) AS orders,
  COALESCE(SUM(total), 0) AS revenue
FROM %s
WHERE event_type = 'order_created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

// SalesService reads sales KPIs from the order_sales table.
type SalesService interface {
	Summary(ctx context.Context, r types.SalesRange) (*types.SalesSummary, error)
}

type salesService struct {
	client   *bigquery.Client
	tableRef string
}

// NewSalesService builds a service backed by BigQuery.
func NewSalesService(client *bigquery.Client, project, dataset, table string) (SalesService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	ref, err := tableRef(project, dataset, table)
	if err != nil {
		return nil, err
	}
	return &salesService{client: client, tableRef: ref}, nil
}

func tableRef(project, dataset, table string) (string, error) {
	project, dataset, table = strings.TrimSpace(project), strings.TrimSpace(dataset), strings.TrimSpace(table)
	if project == "" || dataset == "" || table == "" {
		return "", fmt.Errorf("project, dataset, and table are required")
	}
	return fmt.Sprintf("`%s.%s.%s`", project, dataset, table), nil
}

func (s *salesService) Summary(ctx context.Context, r types.SalesRange) (*types.SalesSummary, error) {
	if err := validateRange(r); err != nil {
		return nil, err
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: r.Start},
		{Name: "end", Value: r.End},
	}
	iter, err := s.client.Query(ctx, fmt.Sprintf(dailySalesSQL, s.tableRef), params)
	if err != nil {
		return nil, fmt.Errorf("query daily sales: %w", err)
	}

	summary := &types.SalesSummary{Start: r.Start, End: r.End, Daily: []types.DailySales{}}
	for {
		var row struct {
			Day     string   `bigquery:"day"`
			Orders  int64    `bigquery:"orders"`
			Revenue *big.Rat `bigquery:"revenue"`
		}
		if err := iter.Next(&row); err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("reading daily sales row: %w", err)
		}
		summary.Daily = append(summary.Daily, types.DailySales{
			Date:    row.Day,
			Orders:  row.Orders,
			Revenue: ratToDecimal(row.Revenue),
		})
	}
	summary.Totals()
	return summary, nil
}

func validateRange(r types.SalesRange) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if r.End.Before(r.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 2)
}
