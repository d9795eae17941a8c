package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetdelights/bakery-backend/internal/analytics/query"
	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	"github.com/sweetdelights/bakery-backend/internal/enquiries"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const recentEnquiryLimit = 5

// Service builds the admin dashboard.
type Service interface {
	// Dashboard returns catalog and enquiry figures plus sales KPIs for the
	// requested range when the warehouse is reachable.
	Dashboard(ctx context.Context, r types.SalesRange) (*Dashboard, error)
}

// Dashboard is the admin landing page payload.
type Dashboard struct {
	Counts
	RecentEnquiries  []enquiries.EnquiryDTO `json:"recentEnquiries"`
	Sales            *types.SalesSummary    `json:"sales,omitempty"`
	SalesUnavailable bool                   `json:"salesUnavailable,omitempty"`
}

type ServiceParams struct {
	Counts CountsReader
	// Sales is optional. Without it the dashboard omits sales KPIs.
	Sales  query.SalesService
	Logger *logger.Logger
}

type service struct {
	counts CountsReader
	sales  query.SalesService
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Counts == nil {
		return nil, fmt.Errorf("counts reader required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{counts: params.Counts, sales: params.Sales, logg: logg}, nil
}

func (s *service) Dashboard(ctx context.Context, r types.SalesRange) (*Dashboard, error) {
	counts, err := s.counts.Counts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard counts")
	}
	recent, err := s.counts.RecentEnquiries(ctx, recentEnquiryLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent enquiries")
	}

	out := &Dashboard{Counts: counts, RecentEnquiries: make([]enquiries.EnquiryDTO, 0, len(recent))}
	for _, e := range recent {
		out.RecentEnquiries = append(out.RecentEnquiries, enquiries.FromModel(e))
	}

	if s.sales == nil {
		return out, nil
	}
	summary, err := s.sales.Summary(ctx, r)
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return nil, err
	case err != nil:
		ctx = s.logg.WithFields(ctx, map[string]any{"start": r.Start.Format(time.RFC3339), "end": r.End.Format(time.RFC3339)})
		s.logg.WarnErr(ctx, "sales summary unavailable", err)
		out.SalesUnavailable = true
	default:
		out.Sales = summary
	}
	return out, nil
}
