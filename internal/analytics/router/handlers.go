package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	analyticswriter "github.com/sweetdelights/bakery-backend/internal/analytics/writer"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_created")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": string(envelope.EventType),
		"order_id":   event.OrderID.String(),
	})

	row, err := buildSaleRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build sales row", err)
		return err
	}
	if err := h.writer.InsertSale(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert sales row", err)
		return err
	}
	h.logg.Info(logCtx, "sales row inserted")
	return nil
}

func buildSaleRow(envelope types.Envelope, event *payloads.OrderCreatedEvent) (types.SalesRow, error) {
	items, err := analyticswriter.EncodeJSON(event.Lines)
	if err != nil {
		return types.SalesRow{}, fmt.Errorf("encode items json: %w", err)
	}
	var userID *string
	if event.UserID != nil {
		userID = stringPtr(event.UserID.String())
	}
	var deliveryDate *time.Time
	if event.DeliveryDate != nil {
		d := event.DeliveryDate.UTC()
		deliveryDate = &d
	}
	return types.SalesRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		OccurredAt:    envelope.OccurredAt,
		OrderID:       event.OrderID.String(),
		UserID:        userID,
		CustomerEmail: stringPtr(event.CustomerEmail),
		Status:        string(enums.OrderStatusPending),
		PaymentMethod: stringPtr(string(event.PaymentMethod)),
		ItemCount:     int64Ptr(int64(event.ItemCount)),
		Subtotal:      numeric(event.Subtotal),
		DeliveryFee:   numeric(event.DeliveryFee),
		Total:         numeric(event.Total),
		DeliveryDate:  deliveryDate,
		Items:         items,
	}, nil
}

type orderStatusHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderStatusHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for order_status_changed")
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": string(envelope.EventType),
		"order_id":   event.OrderID.String(),
		"status":     string(event.To),
	})

	row := types.SalesRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		OrderID:    event.OrderID.String(),
		Status:     string(event.To),
	}
	if err := h.writer.InsertSale(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert status row", err)
		return err
	}
	return nil
}

type enquiryHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *enquiryHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.EnquirySubmittedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for enquiry_submitted")
	}
	logCtx := h.logg.WithField(ctx, "enquiry_id", event.EnquiryID.String())

	var productName *string
	if event.ProductName != nil {
		productName = stringPtr(*event.ProductName)
	}
	row := types.EnquiryRow{
		EventID:     envelope.EventID,
		OccurredAt:  envelope.OccurredAt,
		EnquiryID:   event.EnquiryID.String(),
		ProductName: productName,
		EventDate:   event.EventDate,
	}
	if err := h.writer.InsertEnquiry(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert enquiry row", err)
		return err
	}
	return nil
}

// numeric converts money to the *big.Rat BigQuery maps onto NUMERIC.
func numeric(d decimal.Decimal) *big.Rat {
	return d.Rat()
}
