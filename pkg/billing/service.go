package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// invoicePageSize is the default page size for the invoice projection.
const invoicePageSize = 10

// Service defines the public interface for subscription snapshot management.
type Service interface {
	// Status returns the user's snapshot, defaulting to the free plan
	// when none is stored.
	Status(ctx context.Context, userID uuid.UUID) (Snapshot, error)

	// Checkout creates a hosted checkout session for the premium plan and
	// returns its redirect URL. Returns ErrAlreadySubscribed or
	// ErrEndingSoon when the provider's authoritative state forbids a new
	// subscription.
	Checkout(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// Cancel marks the subscription to lapse at period end.
	// Returns ErrNoActiveSubscription when there is nothing to cancel.
	Cancel(ctx context.Context, userID uuid.UUID) error

	// Resume clears a pending cancellation.
	// Returns ErrNoCanceledSubscription when nothing is marked to end.
	Resume(ctx context.Context, userID uuid.UUID) error

	// Invoices lists the user's provider invoices.
	// Returns ErrNoBillingHistory when the user has no provider customer.
	Invoices(ctx context.Context, userID uuid.UUID) ([]InvoiceView, error)

	// HandleWebhook verifies and dispatches a raw webhook delivery.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// InvoiceView is the API-facing projection of a provider invoice.
// Amount is in major currency units (provider minor units divided by 100).
type InvoiceView struct {
	ID      string     `json:"id"`
	Amount  float64    `json:"amount"`
	Status  string     `json:"status"`
	Created *time.Time `json:"created,omitempty"`
	PDFURL  string     `json:"pdf,omitempty"`
}

type service struct {
	cfg      Config
	provider Provider
	store    SnapshotStore
	deduper  EventDeduper
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a Service with the given dependencies.
// Panics if provider or store is nil to fail fast during initialization.
func NewService(cfg Config, provider Provider, store SnapshotStore, opts ...ServiceOption) Service {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if store == nil {
		panic("billing: SnapshotStore is required")
	}

	s := &service{
		cfg:      cfg,
		provider: provider,
		store:    store,
		log:      slog.New(slog.DiscardHandler),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// snapshotOrDefault loads the user's snapshot, substituting the default
// free-plan state when none is stored.
func (s *service) snapshotOrDefault(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	snap, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrSnapshotNotFound) {
		return DefaultSnapshot(), nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *service) Status(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	return s.snapshotOrDefault(ctx, userID)
}

// Checkout decides whether a new checkout may be created by consulting
// the provider directly. The local snapshot is only a hint here: it may
// be stale relative to an in-flight webhook, so every decision that
// blocks or permits a new subscription is made against remote state.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	snap, err := s.snapshotOrDefault(ctx, userID)
	if err != nil {
		return "", err
	}

	if snap.SubscriptionID != "" {
		sub, err := s.provider.GetSubscription(ctx, snap.SubscriptionID)
		switch {
		case errors.Is(err, ErrSubscriptionGone):
			// The stored ID is stale; clear it so it never blocks a
			// legitimate new subscription.
			s.log.InfoContext(ctx, "clearing stale subscription id",
				"user_id", userID, "subscription_id", snap.SubscriptionID)
			snap.SubscriptionID = ""
			if err := s.store.Save(ctx, userID, snap); err != nil {
				return "", err
			}
		case err != nil:
			return "", err
		case sub.CancelAtPeriodEnd:
			return "", ErrEndingSoon
		case blocksNewCheckout(sub.Status):
			return "", ErrAlreadySubscribed
		default:
			// The stored subscription is finished (e.g. canceled). Treat
			// the reference as unusable so the customer-wide check below
			// still runs; the provider may know an active subscription the
			// local cache missed.
			snap.SubscriptionID = ""
		}
	}

	if snap.CustomerID != "" && snap.SubscriptionID == "" {
		subs, err := s.provider.ListSubscriptions(ctx, snap.CustomerID)
		if err != nil {
			return "", err
		}
		for _, sub := range subs {
			if blocksNewCheckout(sub.Status) {
				// The local cache missed this subscription; adopt it and
				// refuse to create a second one.
				next := Reconcile(snap, sub, s.cfg.PremiumPriceID, s.now())
				if err := s.store.Save(ctx, userID, next); err != nil {
					return "", err
				}
				return "", ErrAlreadySubscribed
			}
		}
	}

	if snap.CustomerID == "" {
		customerID, err := s.provider.CreateCustomer(ctx, email, userID.String())
		if err != nil {
			return "", err
		}
		snap.CustomerID = customerID
		if err := s.store.Save(ctx, userID, snap); err != nil {
			return "", err
		}
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutParams{
		CustomerID: snap.CustomerID,
		PriceID:    s.cfg.PremiumPriceID,
		UserID:     userID.String(),
		Email:      email,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return "", err
	}

	return sess.URL, nil
}

func (s *service) Cancel(ctx context.Context, userID uuid.UUID) error {
	snap, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrSnapshotNotFound) {
		return ErrNoActiveSubscription
	}
	if err != nil {
		return err
	}
	if !snap.IsPremium() || snap.SubscriptionID == "" {
		return ErrNoActiveSubscription
	}

	if _, err := s.provider.SetCancelAtPeriodEnd(ctx, snap.SubscriptionID, true); err != nil {
		return err
	}

	// Plan and status stay untouched: the subscription remains active
	// until the current period ends.
	snap.CancelAtPeriodEnd = true
	return s.store.Save(ctx, userID, snap)
}

func (s *service) Resume(ctx context.Context, userID uuid.UUID) error {
	snap, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrSnapshotNotFound) {
		return ErrNoCanceledSubscription
	}
	if err != nil {
		return err
	}
	if !snap.CancelAtPeriodEnd || snap.SubscriptionID == "" {
		return ErrNoCanceledSubscription
	}

	if _, err := s.provider.SetCancelAtPeriodEnd(ctx, snap.SubscriptionID, false); err != nil {
		return err
	}

	snap.CancelAtPeriodEnd = false
	return s.store.Save(ctx, userID, snap)
}

func (s *service) Invoices(ctx context.Context, userID uuid.UUID) ([]InvoiceView, error) {
	snap, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, ErrNoBillingHistory
	}
	if err != nil {
		return nil, err
	}
	if snap.CustomerID == "" {
		return nil, ErrNoBillingHistory
	}

	invoices, err := s.provider.ListInvoices(ctx, snap.CustomerID, invoicePageSize)
	if err != nil {
		return nil, err
	}

	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, InvoiceView{
			ID:      inv.ID,
			Amount:  float64(inv.AmountDue) / 100,
			Status:  inv.Status,
			Created: epochTime(inv.Created),
			PDFURL:  inv.PDFURL,
		})
	}
	return views, nil
}
