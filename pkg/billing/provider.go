package billing

import "context"

// EventType identifies a verified webhook notification from the billing
// provider. Values match the provider's own event names so unrecognized
// types pass through the dispatcher untouched.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout.session.completed"
	EventSubscriptionCreated  EventType = "customer.subscription.created"
	EventSubscriptionUpdated  EventType = "customer.subscription.updated"
	EventSubscriptionDeleted  EventType = "customer.subscription.deleted"
	EventInvoicePaid          EventType = "invoice.payment_succeeded"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
)

// Subscription is the provider's subscription object reduced to the
// fields the reconciler needs. Timestamps are provider epoch seconds
// with 0 meaning absent.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             Status
	PriceID            string // first line item's price identifier
	CancelAtPeriodEnd  bool
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	CanceledAt         int64
}

// Invoice is the provider's invoice object reduced to what the invoice
// projection and the invoice event handlers need.
type Invoice struct {
	ID             string
	SubscriptionID string
	Status         string
	AmountDue      int64 // minor currency units
	Created        int64 // epoch seconds
	PDFURL         string
}

// Event is a verified, decoded webhook notification. Exactly one of
// Subscription/Invoice is set depending on the event type; both are nil
// for checkout events, which carry only identifiers.
type Event struct {
	ID           string
	Type         EventType
	CustomerID   string
	UserID       string // from checkout session metadata, checkout events only
	Subscription *Subscription
	Invoice      *Invoice
}

// CheckoutParams contains data needed to create a hosted checkout session.
// UserID travels in session metadata so the completed-checkout event can
// be linked back to the local user.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	UserID     string
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession represents a hosted checkout session.
type CheckoutSession struct {
	ID  string
	URL string
}

// Provider is the narrow billing-provider surface the service depends on.
// Keeping the operation set this small allows substituting a test double
// and prevents provider response shapes from leaking past the boundary.
type Provider interface {
	// CreateCustomer registers a provider customer and returns its ID.
	CreateCustomer(ctx context.Context, email, userID string) (string, error)

	// CreateCheckoutSession creates a hosted checkout session.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// GetSubscription retrieves a subscription by its provider ID.
	// Returns ErrSubscriptionGone when the provider no longer knows the ID.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// ListSubscriptions returns all subscriptions of a provider customer,
	// regardless of status.
	ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)

	// SetCancelAtPeriodEnd toggles the provider's auto-renew flag and
	// returns the updated subscription.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)

	// ListInvoices returns up to limit invoices of a provider customer,
	// newest first.
	ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error)

	// ParseEvent verifies a raw webhook payload against its signature
	// header and decodes it into a typed event. Verification must run on
	// the exact raw bytes; returns ErrInvalidSignature on failure.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
