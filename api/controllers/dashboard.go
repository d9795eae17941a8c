package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/sweetdelights/bakery-backend/api/responses"
	"github.com/sweetdelights/bakery-backend/internal/analytics"
	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

var dashboardNow = func() time.Time {
	return time.Now().UTC()
}

// AdminDashboard serves catalog and enquiry counts, the latest enquiries and
// sales KPIs. The sales window is ?from=&to= (RFC 3339) or ?preset=7d|30d|90d.
func AdminDashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("dashboard"))
			return
		}
		window, err := salesRange(r, dashboardNow())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Dashboard(r.Context(), window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func salesRange(r *http.Request, now time.Time) (types.SalesRange, error) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	if from != "" || to != "" {
		if from == "" || to == "" {
			return types.SalesRange{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
		}
		start, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return types.SalesRange{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid from timestamp")
		}
		end, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return types.SalesRange{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid to timestamp")
		}
		start, end = start.UTC(), end.UTC()
		if end.Before(start) {
			return types.SalesRange{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
		}
		return types.SalesRange{Start: start, End: end}, nil
	}

	window, ok := presetWindow(query.Get("preset"))
	if !ok {
		return types.SalesRange{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset")
	}
	return types.SalesRange{Start: now.Add(-window), End: now}, nil
}

func presetWindow(value string) (time.Duration, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "30d":
		return 30 * 24 * time.Hour, true
	case "7d":
		return 7 * 24 * time.Hour, true
	case "90d":
		return 90 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
