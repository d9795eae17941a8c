package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/db"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/outbox"
	"github.com/sweetdelights/bakery-backend/pkg/outbox/payloads"
	"github.com/sweetdelights/bakery-backend/pkg/outbox/registry"
)

const consumerName = "admin-notifications"

type creator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type processedGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns order and enquiry events into admin feed entries.
type Consumer struct {
	repo         creator
	subscription *pubsub.Subscriber
	idempotency  processedGuard
	decoders     *registry.DecoderRegistry
	currency     string
	logg         *logger.Logger
}

// NewConsumer builds the admin notification consumer.
func NewConsumer(repo creator, subscription *pubsub.Subscriber, guard processedGuard, currency string, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  guard,
		decoders:     registry.DefaultDecoders(),
		currency:     currency,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) processResult {
	eventType := enums.OutboxEventType(attrs["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": string(eventType),
		"consumer":   consumerName,
	})

	if !handles(eventType) {
		c.logg.Debug(logCtx, "skipping event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := c.build(eventType, envelope.Version, envelope.Data)
	if err != nil {
		// A payload that cannot be decoded will not decode on redelivery either.
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	notification.EventID = eventID

	if err := c.repo.Create(ctx, notification); err != nil {
		if db.IsUniqueViolation(err, "") {
			c.logg.Info(logCtx, "notification already recorded")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "notification insert failed", err)
		_ = c.idempotency.Delete(ctx, consumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "admin notified")
	return processResult{ack: true}
}

func handles(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderCreated, enums.EventOrderStatusChanged, enums.EventEnquirySubmitted:
		return true
	}
	return false
}

func (c *Consumer) build(eventType enums.OutboxEventType, version int, data json.RawMessage) (*models.Notification, error) {
	if version <= 0 {
		version = 1
	}
	decoders := c.decoders
	if decoders == nil {
		decoders = registry.DefaultDecoders()
	}
	decoded, err := decoders.Decode(eventType, version, data)
	if err != nil {
		return nil, err
	}

	switch p := decoded.(type) {
	case *payloads.OrderCreatedEvent:
		return &models.Notification{
			Type:  enums.NotificationTypeNewOrder,
			Title: fmt.Sprintf("New order from %s", p.CustomerName),
			Message: fmt.Sprintf("%d item(s) totalling %s%s, paid by %s.",
				p.ItemCount, c.currency, p.Total.StringFixed(0), p.PaymentMethod),
			Link: stringPtr("/admin/orders/" + p.OrderID.String()),
		}, nil
	case *payloads.OrderStatusChangedEvent:
		return &models.Notification{
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   fmt.Sprintf("Order for %s is %s", p.CustomerName, p.To),
			Message: fmt.Sprintf("Status changed from %s to %s.", p.From, p.To),
			Link:    stringPtr("/admin/orders/" + p.OrderID.String()),
		}, nil
	case *payloads.EnquirySubmittedEvent:
		cake := "General enquiry"
		if p.ProductName != nil && strings.TrimSpace(*p.ProductName) != "" {
			cake = *p.ProductName
		}
		eventDate := "Not specified"
		if p.EventDate != nil {
			eventDate = p.EventDate.Format("2006-01-02")
		}
		return &models.Notification{
			Type:    enums.NotificationTypeNewEnquiry,
			Title:   fmt.Sprintf("New cake enquiry from %s", p.Name),
			Message: fmt.Sprintf("%s. Event date: %s. Contact %s / %s.", cake, eventDate, p.Email, p.Phone),
			Link:    stringPtr("/admin/enquiries/" + p.EnquiryID.String()),
		}, nil
	}
	return nil, fmt.Errorf("unsupported event type %q", eventType)
}

func stringPtr(value string) *string {
	return &value
}
