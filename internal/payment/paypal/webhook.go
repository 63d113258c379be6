package paypal

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	EventSaleCompleted = "PAYMENT.SALE.COMPLETED"
	EventSaleDenied    = "PAYMENT.SALE.DENIED"
)

var ErrMalformedEvent = errors.New("paypal: malformed webhook event")

// Event is the subset of a webhook notification the storefront reads. The
// payment id the order was created with is resource.parent_payment.
type Event struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID            string `json:"id"`
		State         string `json:"state"`
		ParentPayment string `json:"parent_payment"`
	} `json:"resource"`
}

func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.EventType == "" || ev.Resource.ParentPayment == "" {
		return nil, fmt.Errorf("%w: event_type and resource.parent_payment are required", ErrMalformedEvent)
	}
	return &ev, nil
}
