package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

// GuestHeader carries the anonymous cart token between client and API.
const GuestHeader = "X-Guest-Token"

// Guest resolves the guest cart token. A missing or malformed token is
// replaced with a fresh one; the resolved token is always echoed back so the
// client can store it.
func Guest(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guestID := strings.TrimSpace(r.Header.Get(GuestHeader))
			if _, err := uuid.Parse(guestID); err != nil {
				guestID = uuid.NewString()
			}
			w.Header().Set(GuestHeader, guestID)

			ctx := WithGuestID(r.Context(), guestID)
			if logg != nil {
				ctx = logg.WithField(ctx, "guest_id", guestID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
