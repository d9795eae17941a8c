package types

import (
	"encoding/json"
	"time"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

// Envelope is a domain event as the analytics worker sees it: pubsub
// attributes merged with the stored payload envelope.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}
