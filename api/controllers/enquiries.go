package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/api/responses"
	"github.com/sweetdelights/bakery-backend/api/validators"
	"github.com/sweetdelights/bakery-backend/internal/enquiries"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type submitEnquiryRequest struct {
	ProductID *uuid.UUID `json:"productId"`
	Name      string     `json:"name" validate:"required,max=120"`
	Email     string     `json:"email" validate:"required,email"`
	Phone     string     `json:"phone" validate:"required,max=40"`
	EventDate string     `json:"eventDate"`
	Size      string     `json:"size" validate:"max=60"`
	Message   string     `json:"message" validate:"required"`
}

type updateEnquiryStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SubmitEnquiry records a custom cake enquiry from the storefront.
func SubmitEnquiry(svc enquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("enquiries"))
			return
		}
		var req submitEnquiryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventDate, err := parseDate("eventDate", req.EventDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Submit(r.Context(), enquiries.SubmitInput{
			ProductID: req.ProductID,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			EventDate: eventDate,
			Size:      req.Size,
			Message:   req.Message,
			ClientKey: middleware.ClientIP(r),
			Actor:     actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// AdminListEnquiries supports ?status=, ?q= and ?range=today|week|month.
func AdminListEnquiries(svc enquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("enquiries"))
			return
		}
		filters, err := enquiryFilters(r, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminGetEnquiry(svc enquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("enquiries"))
			return
		}
		id, err := urlUUID(r, "enquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminUpdateEnquiryStatus(svc enquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("enquiries"))
			return
		}
		id, err := urlUUID(r, "enquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateEnquiryStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseEnquiryStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		dto, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminDeleteEnquiry(svc enquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("enquiries"))
			return
		}
		id, err := urlUUID(r, "enquiryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func AdminExportEnquiries(svc enquiries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("enquiries"))
			return
		}
		now := time.Now()
		filters, err := enquiryFilters(r, now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Export(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCSVHeaders(w, fmt.Sprintf("enquiries-%s.csv", now.Format(dateLayout)))
		if err := enquiries.WriteCSV(w, rows); err != nil && logg != nil {
			logg.Error(r.Context(), "write enquiries csv", err)
		}
	}
}

func enquiryFilters(r *http.Request, now time.Time) (enquiries.ListFilters, error) {
	q := r.URL.Query()
	filters := enquiries.ListFilters{Query: validators.SanitizeString(q.Get("q"), 100)}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" && raw != "all" {
		status, err := enums.ParseEnquiryStatus(strings.ToLower(raw))
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
	since, err := sinceFromQuery(r, now)
	if err != nil {
		return filters, err
	}
	filters.Since = since
	return filters, nil
}
