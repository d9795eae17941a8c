package cart

import "github.com/google/uuid"

// Identity selects whose cart is being used. A signed-in user always wins
// over a guest token; the two carts are never written together.
type Identity struct {
	UserID  uuid.UUID
	GuestID string
}

func ForUser(id uuid.UUID) Identity { return Identity{UserID: id} }

func ForGuest(guestID string) Identity { return Identity{GuestID: guestID} }

func (i Identity) SignedIn() bool {
	return i.UserID != uuid.Nil
}

func (i Identity) Valid() bool {
	return i.SignedIn() || i.GuestID != ""
}

// Kind is "user" or "guest", used for logs and metrics.
func (i Identity) Kind() string {
	if i.SignedIn() {
		return "user"
	}
	return "guest"
}

func (i Identity) key() string {
	if i.SignedIn() {
		return "user:" + i.UserID.String()
	}
	return "guest:" + i.GuestID
}
