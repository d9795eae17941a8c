package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	storeProfile = "profile"
	storeGuest   = "guest"
)

type profilePersister struct {
	store  ProfileCartStore
	userID uuid.UUID
}

func (p profilePersister) Name() string { return storeProfile }

func (p profilePersister) Load(ctx context.Context) ([]Line, error) {
	return p.store.LoadCart(ctx, p.userID)
}

func (p profilePersister) Save(ctx context.Context, lines []Line) error {
	return p.store.SaveCart(ctx, p.userID, lines)
}

// Clear keeps the profile row and stores an empty cart.
func (p profilePersister) Clear(ctx context.Context) error {
	return p.store.SaveCart(ctx, p.userID, []Line{})
}

type guestPersister struct {
	store   GuestCartStore
	guestID string
}

func (p guestPersister) Name() string { return storeGuest }

func (p guestPersister) Load(ctx context.Context) ([]Line, error) {
	return p.store.LoadGuestCart(ctx, p.guestID)
}

func (p guestPersister) Save(ctx context.Context, lines []Line) error {
	return p.store.SaveGuestCart(ctx, p.guestID, lines)
}

// Clear deletes the guest blob entirely.
func (p guestPersister) Clear(ctx context.Context) error {
	return p.store.DeleteGuestCart(ctx, p.guestID)
}

// PersisterFor picks exactly one backing store for the identity.
func PersisterFor(id Identity, profiles ProfileCartStore, guests GuestCartStore) (Persister, error) {
	switch {
	case id.SignedIn():
		if profiles == nil {
			return nil, fmt.Errorf("profile cart store not configured")
		}
		return profilePersister{store: profiles, userID: id.UserID}, nil
	case id.GuestID != "":
		if guests == nil {
			return nil, fmt.Errorf("guest cart store not configured")
		}
		return guestPersister{store: guests, guestID: id.GuestID}, nil
	default:
		return nil, fmt.Errorf("cart identity is empty")
	}
}
