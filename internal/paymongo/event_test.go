package paymongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paidBody = `{
  "data": {
    "id": "evt_123",
    "type": "event",
    "attributes": {
      "type": "checkout_session.payment.paid",
      "data": {
        "id": "cs_abc",
        "type": "checkout_session",
        "attributes": {
          "billing": {"email": " a@b.com ", "name": "A B"},
          "metadata": {"payment_id": "pay-1", "show_id": "show-1", "user_id": "acct-1", "qty": 2},
          "payments": [{"id": "pay_pm_1"}]
        }
      }
    }
  }
}`

func TestParseEvent_PaidCheckout(t *testing.T) {
	ev, err := ParseEvent([]byte(paidBody))
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutPaid, ev.Type())

	p := ev.PaidCheckout()
	assert.Equal(t, "evt_123", p.EventID)
	assert.Equal(t, "cs_abc", p.CheckoutID)
	assert.Equal(t, "pay-1", p.PaymentID)
	assert.Equal(t, "show-1", p.ShowID)
	assert.Equal(t, "acct-1", p.UserID)
	assert.Equal(t, "pay_pm_1", p.PaymongoPaymentID)
	assert.Equal(t, "a@b.com", p.CustomerEmail)
	assert.Equal(t, "A B", p.CustomerName)
	assert.NotEmpty(t, p.ReceivedAt)
	assert.Equal(t, "2", metaString(ev.Data.Attributes.Data.Attributes.Metadata, "qty"))
}

func TestParseEvent_MissingMetadata(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"data":{"id":"evt_2","attributes":{"type":"payment.paid","data":{"id":"pay_x"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "payment.paid", ev.Type())
	p := ev.PaidCheckout()
	assert.Empty(t, p.PaymentID)
	assert.Empty(t, p.UserID)
	assert.Empty(t, p.PaymongoPaymentID)
}

func TestParseEvent_Invalid(t *testing.T) {
	_, err := ParseEvent([]byte("not json"))
	assert.Error(t, err)
}
