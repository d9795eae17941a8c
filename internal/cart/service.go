package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/internal/pricing"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const persistWarning = "cart changes are kept for this session but could not be saved"

// Service exposes cart operations for one identity at a time.
type Service interface {
	Get(ctx context.Context, id Identity) (Result, error)
	Add(ctx context.Context, id Identity, input AddInput) (Result, error)
	SetQuantity(ctx context.Context, id Identity, lineID string, quantity int) (Result, error)
	Remove(ctx context.Context, id Identity, lineID string) (Result, error)
	Clear(ctx context.Context, id Identity) (Result, error)
	MergeGuest(ctx context.Context, userID uuid.UUID, guestID string) (Result, error)
	Checkout(ctx context.Context, id Identity, place func(snapshot *Store) error) (Result, error)
}

// AddInput is the add-to-cart request as it arrives from a client.
type AddInput struct {
	ProductID     uuid.UUID
	Size          string
	Quantity      int
	Customization string
}

// Result carries a snapshot of the cart after the operation. Warning is set
// when the in-memory change succeeded but could not be persisted.
type Result struct {
	Cart    *Store
	Warning string
}

type service struct {
	products     ProductReader
	profiles     ProfileCartStore
	guests       GuestCartStore
	resolver     pricing.Resolver
	defaultImage string
	metrics      Metrics
	logg         *logger.Logger
	sessions     *registry
	clock        func() time.Time
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Products        ProductReader
	Profiles        ProfileCartStore
	Guests          GuestCartStore
	Resolver        pricing.Resolver
	DefaultImageURL string
	Metrics         Metrics
	Logger          *logger.Logger
	SessionIdleTTL  time.Duration
	Clock           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product reader is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile cart store is required")
	}
	if params.Guests == nil {
		return nil, fmt.Errorf("guest cart store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	idle := params.SessionIdleTTL
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &service{
		products:     params.Products,
		profiles:     params.Profiles,
		guests:       params.Guests,
		resolver:     params.Resolver,
		defaultImage: params.DefaultImageURL,
		metrics:      metrics,
		logg:         params.Logger,
		sessions:     newRegistry(idle, clock),
		clock:        clock,
	}, nil
}

func (s *service) Get(ctx context.Context, id Identity) (Result, error) {
	return s.withCart(ctx, id, "get", nil)
}

func (s *service) Add(ctx context.Context, id Identity, input AddInput) (Result, error) {
	if input.Quantity < 1 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.ProductID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return Result{}, err
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	selection, ok := s.resolver.Select(pricing.FromProduct(*product), input.Size)
	if !ok {
		return Result{}, pkgerrors.Newf(pkgerrors.CodeValidation, "size %q is not offered for this product", input.Size).
			WithDetails(map[string]any{"size": input.Size})
	}

	image := s.defaultImage
	if len(product.ImageURLs) > 0 && product.ImageURLs[0] != "" {
		image = product.ImageURLs[0]
	}

	line := LineInput{
		ProductID:     product.ID.String(),
		Name:          product.Name,
		Image:         image,
		UnitPrice:     selection.UnitPrice,
		Quantity:      input.Quantity,
		Size:          selection.Size,
		Customization: strings.TrimSpace(input.Customization),
	}
	return s.withCart(ctx, id, "add", func(st *Store) bool {
		_, changed := st.Add(line)
		return changed
	})
}

func (s *service) SetQuantity(ctx context.Context, id Identity, lineID string, quantity int) (Result, error) {
	return s.withCart(ctx, id, "set_quantity", func(st *Store) bool {
		return st.SetQuantity(lineID, quantity)
	})
}

func (s *service) Remove(ctx context.Context, id Identity, lineID string) (Result, error) {
	return s.withCart(ctx, id, "remove", func(st *Store) bool {
		return st.Remove(lineID)
	})
}

func (s *service) Clear(ctx context.Context, id Identity) (Result, error) {
	return s.withCart(ctx, id, "clear", func(st *Store) bool {
		st.Clear()
		return true
	})
}

// Checkout hands a snapshot of the cart to place while holding the cart's
// session, and empties the cart only when place succeeds. Mutations from other
// requests wait until the cart has been cleared, so nothing added during the
// order write is lost. An error from place is returned unchanged.
func (s *service) Checkout(ctx context.Context, id Identity, place func(snapshot *Store) error) (Result, error) {
	if place == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeInternal, "checkout callback is required")
	}
	return s.withCartE(ctx, id, "checkout", func(st *Store) (bool, error) {
		if err := place(st.Clone()); err != nil {
			return false, err
		}
		st.Clear()
		return true, nil
	})
}

// MergeGuest folds a guest cart into the user's cart with the same rules as
// Add (same product and size add up), then deletes the guest cart.
func (s *service) MergeGuest(ctx context.Context, userID uuid.UUID, guestID string) (Result, error) {
	if userID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to merge a guest cart")
	}
	guest := ForGuest(strings.TrimSpace(guestID))
	if guest.GuestID == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "guest token is required")
	}

	guestRes, err := s.withCart(ctx, guest, "get", nil)
	if err != nil {
		return Result{}, err
	}
	guestLines := guestRes.Cart.Lines()
	if len(guestLines) == 0 {
		return s.Get(ctx, ForUser(userID))
	}

	res, err := s.withCart(ctx, ForUser(userID), "merge", func(st *Store) bool {
		for _, l := range guestLines {
			st.Add(LineInput{
				ProductID:     l.ProductID,
				Name:          l.Name,
				Image:         l.Image,
				UnitPrice:     l.UnitPrice,
				Quantity:      l.Quantity,
				Size:          l.Size,
				Customization: l.Customization,
			})
		}
		return true
	})
	if err != nil {
		return Result{}, err
	}

	cleared, err := s.Clear(ctx, guest)
	if err != nil {
		s.logg.WarnErr(ctx, "guest cart cleanup after merge failed", err)
		return res, nil
	}
	if cleared.Warning != "" {
		// The guest blob survived; keep its session so the delete is retried.
		s.logg.Warn(ctx, "guest cart could not be deleted after merge")
		return res, nil
	}
	s.sessions.drop(guest.key())
	return res, nil
}

// withCart runs mutate against the identity's in-memory cart and mirrors the
// result to its store. A failed save leaves the session dirty and is
// reported as Result.Warning, never as an error.
func (s *service) withCart(ctx context.Context, id Identity, op string, mutate func(*Store) bool) (Result, error) {
	if mutate == nil {
		return s.withCartE(ctx, id, op, nil)
	}
	return s.withCartE(ctx, id, op, func(st *Store) (bool, error) {
		return mutate(st), nil
	})
}

// withCartE is withCart for mutations that can fail. A failed mutation is
// returned before anything is persisted.
func (s *service) withCartE(ctx context.Context, id Identity, op string, mutate func(*Store) (bool, error)) (Result, error) {
	if !id.Valid() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "a signed-in user or guest token is required")
	}
	persister, err := PersisterFor(id, s.profiles, s.guests)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select cart store")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"cart_store": persister.Name(), "cart_op": op})

	sess := s.sessions.get(id.key())
	sess.mu.Lock()
	defer sess.mu.Unlock()

	stale, err := s.refresh(ctx, sess, persister)
	if err != nil {
		return Result{}, err
	}

	changed := false
	if mutate != nil {
		changed, err = mutate(sess.store)
		if err != nil {
			return Result{}, err
		}
		if changed {
			s.metrics.CartMutation(op, id.Kind())
		}
	}

	var warning string
	saved := false
	if changed || sess.dirty {
		if err := s.persist(ctx, persister, sess.store); err != nil {
			sess.dirty = true
			s.metrics.CartPersistFailure(persister.Name())
			s.logg.WarnErr(ctx, "cart persistence failed", err)
			warning = persistWarning
		} else {
			sess.dirty = false
			saved = true
		}
	}
	if stale && !saved {
		warning = persistWarning
	}

	return Result{Cart: sess.store.Clone(), Warning: warning}, nil
}

// refresh reloads a clean session from its store and reports whether the
// cart is being served from memory instead. Unsaved local changes win over
// the stored copy; a cached copy is used if the store cannot be read.
func (s *service) refresh(ctx context.Context, sess *session, persister Persister) (bool, error) {
	if sess.dirty && sess.loaded {
		return true, nil
	}
	lines, err := persister.Load(ctx)
	if err != nil {
		if sess.loaded {
			s.logg.WarnErr(ctx, "cart reload failed, serving cached cart", err)
			return true, nil
		}
		if pkgerrors.As(err) != nil {
			return false, err
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	sess.store = NewStore(lines, WithClock(s.clock))
	sess.loaded = true
	return false, nil
}

func (s *service) persist(ctx context.Context, persister Persister, st *Store) error {
	if st.IsEmpty() {
		return persister.Clear(ctx)
	}
	return persister.Save(ctx, st.Lines())
}
