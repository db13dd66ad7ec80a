package paymongo

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/iliyamo/stagelink/internal/queue"
)

// EventCheckoutPaid is the only event type the worker acts on.
const EventCheckoutPaid = "checkout_session.payment.paid"

// Event is the webhook envelope:
//
//	{"data": {"id": "evt_...", "attributes": {"type": "...", "data": {checkout session}}}}
type Event struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Type string          `json:"type"`
			Data CheckoutSession `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

// CheckoutSession is the resource carried by checkout session events.
type CheckoutSession struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Billing struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"billing"`
		Metadata map[string]any `json:"metadata"`
		Payments []struct {
			ID string `json:"id"`
		} `json:"payments"`
	} `json:"attributes"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(body, &ev)
	return ev, err
}

// Type returns the event type.
func (e Event) Type() string { return e.Data.Attributes.Type }

// PaidCheckout extracts the fields the payment worker needs.
func (e Event) PaidCheckout() queue.PaymentPaidEvent {
	return e.Data.Attributes.Data.PaidEvent(e.Data.ID)
}

// PaidEvent builds the worker payload for this session.  eventID may be
// empty when the session was fetched from the API rather than delivered.
func (cs CheckoutSession) PaidEvent(eventID string) queue.PaymentPaidEvent {
	ev := queue.PaymentPaidEvent{
		EventID:       eventID,
		CheckoutID:    cs.ID,
		PaymentID:     metaString(cs.Attributes.Metadata, "payment_id"),
		ShowID:        metaString(cs.Attributes.Metadata, "show_id"),
		UserID:        metaString(cs.Attributes.Metadata, "user_id"),
		CustomerEmail: strings.TrimSpace(cs.Attributes.Billing.Email),
		CustomerName:  strings.TrimSpace(cs.Attributes.Billing.Name),
		ReceivedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if len(cs.Attributes.Payments) > 0 {
		ev.PaymongoPaymentID = cs.Attributes.Payments[0].ID
	}
	return ev
}

// metaString reads a metadata value.  Metadata is free-form, so numbers
// and other scalars are accepted and rendered as text.
func metaString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}
