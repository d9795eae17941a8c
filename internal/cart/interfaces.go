package cart

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
)

// Persister mirrors one identity's cart to durable storage. Clear may delete
// the stored cart outright; a later Load must then return no lines.
type Persister interface {
	Name() string
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
	Clear(ctx context.Context) error
}

// ProfileCartStore reads and writes the cart field of a user profile.
type ProfileCartStore interface {
	LoadCart(ctx context.Context, userID uuid.UUID) ([]Line, error)
	SaveCart(ctx context.Context, userID uuid.UUID, lines []Line) error
}

// GuestCartStore keeps anonymous carts keyed by guest token.
type GuestCartStore interface {
	LoadGuestCart(ctx context.Context, guestID string) ([]Line, error)
	SaveGuestCart(ctx context.Context, guestID string, lines []Line) error
	DeleteGuestCart(ctx context.Context, guestID string) error
}

// ProductReader is the catalog lookup used when adding to the cart.
type ProductReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Metrics receives cart instrumentation; pkg/metrics implements it.
type Metrics interface {
	CartMutation(op, identity string)
	CartPersistFailure(store string)
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(guestID string) string
}

type noopMetrics struct{}

func (noopMetrics) CartMutation(string, string) {}
func (noopMetrics) CartPersistFailure(string)   {}
