package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/api/validators"
	"github.com/sweetdelights/bakery-backend/internal/cart"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/outbox"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
	"github.com/sweetdelights/bakery-backend/pkg/types"
)

const dateLayout = "2006-01-02"

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// requireUserID returns the signed-in caller or an unauthorized error.
func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// cartIdentity picks the signed-in user's cart, falling back to the guest
// token resolved by middleware.Guest.
func cartIdentity(r *http.Request) (cart.Identity, error) {
	if middleware.UserIDFromContext(r.Context()) != "" {
		id, err := requireUserID(r)
		if err != nil {
			return cart.Identity{}, err
		}
		return cart.ForUser(id), nil
	}
	guestID := middleware.GuestIDFromContext(r.Context())
	if guestID == "" {
		return cart.Identity{}, pkgerrors.New(pkgerrors.CodeValidation, "guest token missing")
	}
	return cart.ForGuest(guestID), nil
}

func actorFromRequest(r *http.Request) *outbox.ActorRef {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{UserID: &id, Role: middleware.RoleFromContext(r.Context())}
}

func urlUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// sinceFromQuery resolves the ?range=today|week|month shortcut.
func sinceFromQuery(r *http.Request, now time.Time) (*time.Time, error) {
	dr, err := types.ParseDateRange(r.URL.Query().Get("range"))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid range")
	}
	since, ok := dr.Since(now)
	if !ok {
		return nil, nil
	}
	return &since, nil
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp. Empty is nil.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").WithDetails(map[string]any{"field": field})
	}
	return &t, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		v := true
		return &v, nil
	case "0", "false", "no":
		v := false
		return &v, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid boolean").WithDetails(map[string]any{"field": key})
}
