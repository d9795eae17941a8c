package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/api/responses"
	"github.com/sweetdelights/bakery-backend/api/validators"
	product "github.com/sweetdelights/bakery-backend/internal/products"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type sizeRequest struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

type createProductRequest struct {
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Category    string        `json:"category" validate:"required"`
	Sizes       []sizeRequest `json:"sizes" validate:"dive"`
	PriceRange  *string       `json:"priceRange"`
	Images      []string      `json:"images"`
	Featured    bool          `json:"featured"`
	Active      *bool         `json:"active"`
}

type updateProductRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Category    *string        `json:"category"`
	Sizes       *[]sizeRequest `json:"sizes"`
	PriceRange  *string        `json:"priceRange"`
	Images      *[]string      `json:"images"`
	Featured    *bool          `json:"featured"`
	Active      *bool          `json:"active"`
}

func toSizeInputs(in []sizeRequest) []product.SizeInput {
	out := make([]product.SizeInput, 0, len(in))
	for _, s := range in {
		out = append(out, product.SizeInput{Name: s.Name, Price: s.Price})
	}
	return out
}

func (req createProductRequest) toInput() product.CreateProductInput {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return product.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Sizes:       toSizeInputs(req.Sizes),
		PriceRange:  req.PriceRange,
		ImageURLs:   req.Images,
		IsFeatured:  req.Featured,
		IsActive:    active,
	}
}

func (req updateProductRequest) toInput() product.UpdateProductInput {
	input := product.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceRange:  req.PriceRange,
		ImageURLs:   req.Images,
		IsFeatured:  req.Featured,
		IsActive:    req.Active,
	}
	if req.Sizes != nil {
		sizes := toSizeInputs(*req.Sizes)
		input.Sizes = &sizes
	}
	return input
}

// ListProducts serves the storefront catalog; inactive products stay hidden.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, false)
}

func AdminListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, true)
}

func listProducts(svc product.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		featured, err := queryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		filters := product.ListFilters{
			CategoryKey:     strings.TrimSpace(q.Get("category")),
			Featured:        featured,
			Search:          validators.SanitizeString(q.Get("q"), 100),
			IncludeInactive: includeInactive,
		}

		items, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return getProduct(svc, logg, false)
}

func AdminGetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return getProduct(svc, logg, true)
}

func getProduct(svc product.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := urlUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id, includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := urlUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Update(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := urlUUID(r, "productId")
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
