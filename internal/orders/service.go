package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/outbox"
	"github.com/sweetdelights/bakery-backend/pkg/outbox/payloads"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
)

// Service covers the admin order desk and the customer's own order history.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor *outbox.ActorRef) (*OrderDTO, error)
	Export(ctx context.Context, filters ListFilters) ([]OrderDTO, error)
}

type ServiceParams struct {
	Repo   Repository
	Tx     db.TxRunner
	Outbox outbox.Emitter
	Logger *logger.Logger
	Clock  func() time.Time
}

type service struct {
	repo   Repository
	tx     db.TxRunner
	outbox outbox.Emitter
	logg   *logger.Logger
	clock  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
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
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   params.Logger,
		clock:  clock,
	}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error) {
	rows, next, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, err
	}
	return toList(rows, next), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view your orders")
	}
	rows, next, err := s.repo.List(ctx, ListFilters{UserID: &userID}, params)
	if err != nil {
		return nil, err
	}
	return toList(rows, next), nil
}

// GetForUser hides orders placed by someone else behind NOT_FOUND.
func (s *service) GetForUser(ctx context.Context, userID, id uuid.UUID) (*OrderDTO, error) {
	dto, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.UserID == nil || *dto.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return dto, nil
}

// UpdateStatus moves an order and queues order_status_changed in the same
// transaction. Delivered and cancelled orders are final.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor *outbox.ActorRef) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}

	var updated models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := order.Status
		if from == status {
			updated = *order
			return nil
		}
		if from.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", from).
				WithDetails(map[string]any{"status": from})
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		now := s.clock().UTC()
		order.Status = status
		order.UpdatedAt = now
		updated = *order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Actor:         actor,
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:      id,
				CustomerName: order.Customer.Name,
				From:         from,
				To:           status,
				ChangedAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": id.String(), "status": status})
	s.logg.Info(logCtx, "order status updated")
	dto := FromModel(updated)
	return &dto, nil
}

func (s *service) Export(ctx context.Context, filters ListFilters) ([]OrderDTO, error) {
	rows, err := s.repo.ListAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func toList(rows []models.Order, next string) *OrderList {
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Orders = append(list.Orders, FromModel(row))
	}
	return list
}
