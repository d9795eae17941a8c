package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/internal/cart"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	"github.com/sweetdelights/bakery-backend/pkg/db"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/outbox"
	"github.com/sweetdelights/bakery-backend/pkg/outbox/payloads"
)

const (
	OutcomePlaced   = "placed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics receives one outcome per checkout attempt.
type Metrics interface {
	CheckoutOutcome(outcome string)
}

var validate = validator.New()

type noopMetrics struct{}

func (noopMetrics) CheckoutOutcome(string) {}

// Service turns the caller's cart into an order.
type Service interface {
	PlaceOrder(ctx context.Context, id cart.Identity, input PlaceOrderInput) (*Placement, error)
}

// PlaceOrderInput captures the checkout form.
type PlaceOrderInput struct {
	Customer      models.CustomerInfo
	DeliveryDate  *time.Time
	Notes         string
	PaymentMethod enums.PaymentMethod
	Actor         *outbox.ActorRef
}

// Placement is the committed order. CartWarning is set when the order went
// through but the cart could not be emptied afterwards.
type Placement struct {
	Order       orders.OrderDTO `json:"order"`
	CartWarning string          `json:"cartWarning,omitempty"`
}

type ServiceParams struct {
	Carts   cart.Service
	Orders  orders.Repository
	Tx      db.TxRunner
	Outbox  outbox.Emitter
	Metrics Metrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	carts   cart.Service
	orders  orders.Repository
	tx      db.TxRunner
	outbox  outbox.Emitter
	metrics Metrics
	logg    *logger.Logger
	clock   func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		carts:   params.Carts,
		orders:  params.Orders,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: metrics,
		logg:    params.Logger,
		clock:   clock,
	}, nil
}

var errEmptyCart = errors.New("cart is empty")

// PlaceOrder writes the order and its order_created event in one transaction
// and empties the cart only after that commit. The cart stays locked for the
// whole placement, so a concurrent add either lands in this order or in the
// emptied cart afterwards. A failed write leaves the cart untouched and is
// reported as DEPENDENCY_ERROR so the client can retry.
func (s *service) PlaceOrder(ctx context.Context, id cart.Identity, input PlaceOrderInput) (*Placement, error) {
	now := s.clock().UTC()
	input, err := normalizeInput(input, now)
	if err != nil {
		s.metrics.CheckoutOutcome(OutcomeRejected)
		return nil, err
	}

	var (
		order  *models.Order
		totals Totals
		txErr  error
	)
	cleared, err := s.carts.Checkout(ctx, id, func(snapshot *cart.Store) error {
		if snapshot.IsEmpty() {
			return errEmptyCart
		}
		totals = Calculate(snapshot)
		order = newOrder(id, input, snapshot, totals, now)
		txErr = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         input.Actor,
				OccurredAt:    now,
				Data:          orderCreatedPayload(order, totals),
			})
		})
		return txErr
	})
	switch {
	case errors.Is(err, errEmptyCart):
		s.metrics.CheckoutOutcome(OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	case txErr != nil:
		s.metrics.CheckoutOutcome(OutcomeFailed)
		s.logg.Error(ctx, "order placement failed", txErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "could not place order, please try again")
	case err != nil:
		s.metrics.CheckoutOutcome(OutcomeFailed)
		return nil, err
	}
	s.metrics.CheckoutOutcome(OutcomePlaced)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"item_count": totals.ItemCount,
		"total":      totals.Total.String(),
	})
	s.logg.Info(logCtx, "order placed")

	placement := &Placement{Order: orders.FromModel(*order)}
	if cleared.Warning != "" {
		s.logg.Warn(logCtx, "cart clear after checkout was not saved")
		placement.CartWarning = "your order was placed but the cart could not be emptied"
	}
	return placement, nil
}

func newOrder(id cart.Identity, input PlaceOrderInput, snapshot *cart.Store, totals Totals, now time.Time) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		Customer:      input.Customer,
		Items:         snapshot.Lines(),
		Subtotal:      totals.Subtotal,
		DeliveryFee:   totals.DeliveryFee,
		TotalAmount:   totals.Total,
		Status:        enums.OrderStatusPending,
		PaymentMethod: input.PaymentMethod,
		DeliveryDate:  input.DeliveryDate,
		OrderDate:     now,
		UpdatedAt:     now,
	}
	if id.SignedIn() {
		userID := id.UserID
		order.UserID = &userID
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		order.Notes = &notes
	}
	return order
}

func normalizeInput(input PlaceOrderInput, now time.Time) (PlaceOrderInput, error) {
	c := &input.Customer
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)

	missing := []string{}
	for _, f := range []struct{ name, value string }{
		{"name", c.Name}, {"email", c.Email}, {"phone", c.Phone}, {"address", c.Address},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "customer details are incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if err := validate.Var(c.Email, "email"); err != nil {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	if !input.PaymentMethod.IsValid() {
		return input, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported payment method %q", input.PaymentMethod)
	}
	if input.DeliveryDate != nil {
		y, m, d := now.Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if input.DeliveryDate.UTC().Before(today) {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "delivery date cannot be in the past")
		}
	}
	return input, nil
}

func orderCreatedPayload(order *models.Order, totals Totals) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, payloads.OrderLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		CustomerName:  order.Customer.Name,
		CustomerEmail: order.Customer.Email,
		Lines:         lines,
		ItemCount:     totals.ItemCount,
		Subtotal:      totals.Subtotal,
		DeliveryFee:   totals.DeliveryFee,
		Total:         totals.Total,
		PaymentMethod: order.PaymentMethod,
		DeliveryDate:  order.DeliveryDate,
		OrderDate:     order.OrderDate,
	}
}
