package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// HandleWebhook verifies a raw webhook delivery and routes it by event
// type. Unknown types are acknowledged as no-ops so the provider can add
// events without breaking us. Events whose customer cannot be resolved
// to a local user are dropped silently: the user may have been deleted,
// or the event predates linkage.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		return err
	}

	if s.deduper != nil && event.ID != "" {
		seen, err := s.deduper.Seen(ctx, event.ID)
		if err != nil {
			// Fail open: handlers are idempotent, a duplicate run is harmless.
			s.log.WarnContext(ctx, "webhook dedupe check failed", "error", err)
		} else if seen {
			s.log.DebugContext(ctx, "duplicate webhook event ignored",
				"event_id", event.ID, "type", string(event.Type))
			return nil
		}
	}

	switch event.Type {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.handleSubscriptionChange(ctx, event)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case EventInvoicePaid:
		return s.handleInvoicePaid(ctx, event)
	case EventInvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.log.InfoContext(ctx, "unhandled webhook event", "type", string(event.Type))
		return nil
	}
}

// findByCustomer resolves the local user linked to a provider customer.
// A missing link is reported via found=false, never as an error.
func (s *service) findByCustomer(ctx context.Context, customerID string) (uuid.UUID, Snapshot, bool, error) {
	if customerID == "" {
		return uuid.Nil, Snapshot{}, false, nil
	}
	userID, snap, err := s.store.FindByCustomerID(ctx, customerID)
	if errors.Is(err, ErrSnapshotNotFound) {
		s.log.DebugContext(ctx, "webhook for unknown customer dropped", "customer_id", customerID)
		return uuid.Nil, Snapshot{}, false, nil
	}
	if err != nil {
		return uuid.Nil, Snapshot{}, false, err
	}
	return userID, snap, true, nil
}

// handleCheckoutCompleted attaches the provider customer ID to the user
// named in the session metadata. No plan change happens here; the
// subscription lifecycle events carry the state to merge.
func (s *service) handleCheckoutCompleted(ctx context.Context, event *Event) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		s.log.DebugContext(ctx, "checkout event without usable user reference dropped",
			"event_id", event.ID)
		return nil
	}

	snap, err := s.snapshotOrDefault(ctx, userID)
	if err != nil {
		return err
	}
	if event.CustomerID != "" {
		snap.CustomerID = event.CustomerID
	}
	return s.store.Save(ctx, userID, snap)
}

func (s *service) handleSubscriptionChange(ctx context.Context, event *Event) error {
	if event.Subscription == nil {
		return nil
	}

	userID, snap, found, err := s.findByCustomer(ctx, event.CustomerID)
	if err != nil || !found {
		return err
	}

	next := Reconcile(snap, *event.Subscription, s.cfg.PremiumPriceID, s.now())
	return s.store.Save(ctx, userID, next)
}

func (s *service) handleSubscriptionDeleted(ctx context.Context, event *Event) error {
	userID, snap, found, err := s.findByCustomer(ctx, event.CustomerID)
	if err != nil || !found {
		return err
	}

	now := s.now().UTC()
	snap.Status = StatusCanceled
	snap.Plan = PlanFree
	snap.Subscribed = false
	snap.CanceledAt = &now
	snap.CancelAtPeriodEnd = false
	return s.store.Save(ctx, userID, snap)
}

// handleInvoicePaid re-reads the referenced subscription from the
// provider and merges it, advancing the billing period window. Invoices
// without a subscription reference (one-off charges) are ignored.
func (s *service) handleInvoicePaid(ctx context.Context, event *Event) error {
	if event.Invoice == nil || event.Invoice.SubscriptionID == "" {
		return nil
	}

	userID, snap, found, err := s.findByCustomer(ctx, event.CustomerID)
	if err != nil || !found {
		return err
	}

	sub, err := s.provider.GetSubscription(ctx, event.Invoice.SubscriptionID)
	if errors.Is(err, ErrSubscriptionGone) {
		s.log.InfoContext(ctx, "invoice references vanished subscription",
			"subscription_id", event.Invoice.SubscriptionID)
		return nil
	}
	if err != nil {
		return err
	}

	next := Reconcile(snap, *sub, s.cfg.PremiumPriceID, s.now())
	return s.store.Save(ctx, userID, next)
}

// handleInvoicePaymentFailed marks the snapshot past_due and changes
// nothing else; a later payment success or subscription event restores it.
func (s *service) handleInvoicePaymentFailed(ctx context.Context, event *Event) error {
	userID, snap, found, err := s.findByCustomer(ctx, event.CustomerID)
	if err != nil || !found {
		return err
	}

	snap.Status = StatusPastDue
	return s.store.Save(ctx, userID, snap)
}
