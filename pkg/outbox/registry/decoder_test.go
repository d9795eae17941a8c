package registry

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventEnquirySubmitted, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"name":"Meera"}`)
	output, err := reg.Decode(enums.EventEnquirySubmitted, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["name"] != "Meera" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventEnquirySubmitted, 2, input); err == nil {
		t.Fatalf("expected error for unregistered version")
	}
}

func TestDefaultDecodersOrderCreated(t *testing.T) {
	orderID := uuid.New()
	raw, err := json.Marshal(payloads.OrderCreatedEvent{OrderID: orderID, CustomerName: "Ravi"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := DefaultDecoders().Decode(enums.EventOrderCreated, 1, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	evt, ok := out.(*payloads.OrderCreatedEvent)
	if !ok || evt.OrderID != orderID || evt.CustomerName != "Ravi" {
		t.Fatalf("unexpected payload %+v", out)
	}
}
