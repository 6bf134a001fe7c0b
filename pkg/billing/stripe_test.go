package billing_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/billing"
)

const webhookSecret = "whsec_test_secret"

func newTestProvider(t *testing.T) *billing.StripeProvider {
	t.Helper()
	provider, err := billing.NewStripeProvider(billing.Config{
		SecretKey:      "sk_test_xxx",
		WebhookSecret:  webhookSecret,
		PremiumPriceID: premiumPriceID,
	})
	require.NoError(t, err)
	return provider
}

// signPayload produces a Stripe-Signature header the way Stripe's servers
// do: HMAC-SHA256 over "<timestamp>.<payload>" keyed with the endpoint secret.
func signPayload(t *testing.T, secret string, payload []byte, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestNewStripeProvider_Validation(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripeProvider(billing.Config{WebhookSecret: "whsec"})
	assert.ErrorIs(t, err, billing.ErrMissingSecretKey)

	_, err = billing.NewStripeProvider(billing.Config{SecretKey: "sk_test"})
	assert.ErrorIs(t, err, billing.ErrMissingWebhookSecret)
}

func TestParseEvent_SubscriptionUpdated(t *testing.T) {
	t.Parallel()
	provider := newTestProvider(t)

	payload := []byte(`{
		"id": "evt_sub_updated",
		"type": "customer.subscription.updated",
		"data": {
			"object": {
				"id": "sub_123",
				"customer": "cus_123",
				"status": "active",
				"cancel_at_period_end": true,
				"current_period_start": 1700000000,
				"current_period_end": 1702592000,
				"items": {
					"data": [{"price": {"id": "price_premium_monthly"}}]
				}
			}
		}
	}`)

	event, err := provider.ParseEvent(payload, signPayload(t, webhookSecret, payload, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "evt_sub_updated", event.ID)
	assert.Equal(t, billing.EventSubscriptionUpdated, event.Type)
	assert.Equal(t, "cus_123", event.CustomerID)

	require.NotNil(t, event.Subscription)
	assert.Equal(t, "sub_123", event.Subscription.ID)
	assert.Equal(t, billing.StatusActive, event.Subscription.Status)
	assert.Equal(t, premiumPriceID, event.Subscription.PriceID)
	assert.True(t, event.Subscription.CancelAtPeriodEnd)
	assert.Equal(t, int64(1700000000), event.Subscription.CurrentPeriodStart)
	assert.Equal(t, int64(1702592000), event.Subscription.CurrentPeriodEnd)
}

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	t.Parallel()
	provider := newTestProvider(t)

	t.Run("user id from metadata", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"id": "evt_checkout",
			"type": "checkout.session.completed",
			"data": {
				"object": {
					"id": "cs_1",
					"customer": "cus_123",
					"metadata": {"user_id": "8a35b1f0-5bd2-4c35-a1e6-0a0e6a64d0a1"}
				}
			}
		}`)

		event, err := provider.ParseEvent(payload, signPayload(t, webhookSecret, payload, time.Now()))
		require.NoError(t, err)

		assert.Equal(t, billing.EventCheckoutCompleted, event.Type)
		assert.Equal(t, "cus_123", event.CustomerID)
		assert.Equal(t, "8a35b1f0-5bd2-4c35-a1e6-0a0e6a64d0a1", event.UserID)
	})

	t.Run("falls back to client_reference_id", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"id": "evt_checkout_ref",
			"type": "checkout.session.completed",
			"data": {
				"object": {
					"id": "cs_2",
					"customer": "cus_123",
					"client_reference_id": "8a35b1f0-5bd2-4c35-a1e6-0a0e6a64d0a1"
				}
			}
		}`)

		event, err := provider.ParseEvent(payload, signPayload(t, webhookSecret, payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "8a35b1f0-5bd2-4c35-a1e6-0a0e6a64d0a1", event.UserID)
	})
}

func TestParseEvent_InvoicePaid(t *testing.T) {
	t.Parallel()
	provider := newTestProvider(t)

	payload := []byte(`{
		"id": "evt_invoice",
		"type": "invoice.payment_succeeded",
		"data": {
			"object": {
				"id": "in_1",
				"customer": "cus_123",
				"subscription": "sub_123",
				"status": "paid",
				"amount_due": 1999,
				"created": 1700000000,
				"invoice_pdf": "https://pay.stripe.com/in_1.pdf"
			}
		}
	}`)

	event, err := provider.ParseEvent(payload, signPayload(t, webhookSecret, payload, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, billing.EventInvoicePaid, event.Type)
	assert.Equal(t, "cus_123", event.CustomerID)

	require.NotNil(t, event.Invoice)
	assert.Equal(t, "in_1", event.Invoice.ID)
	assert.Equal(t, "sub_123", event.Invoice.SubscriptionID)
	assert.Equal(t, int64(1999), event.Invoice.AmountDue)
	assert.Equal(t, "https://pay.stripe.com/in_1.pdf", event.Invoice.PDFURL)
}

func TestParseEvent_InvalidSignature(t *testing.T) {
	t.Parallel()
	provider := newTestProvider(t)

	payload := []byte(`{"id":"evt_x","type":"customer.subscription.updated","data":{"object":{}}}`)

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		_, err := provider.ParseEvent(payload, signPayload(t, "whsec_wrong", payload, time.Now()))
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()

		sig := signPayload(t, webhookSecret, payload, time.Now())
		tampered := append([]byte(nil), payload...)
		tampered[10] = 'y'

		_, err := provider.ParseEvent(tampered, sig)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		t.Parallel()

		sig := signPayload(t, webhookSecret, payload, time.Now().Add(-time.Hour))
		_, err := provider.ParseEvent(payload, sig)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("garbage header", func(t *testing.T) {
		t.Parallel()

		_, err := provider.ParseEvent(payload, "not-a-signature")
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})
}
