package billing

import "time"

// epochTime converts provider epoch seconds to a UTC instant.
// Absent or invalid values yield nil so callers never overwrite a
// previously valid date with epoch zero.
func epochTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// Reconcile projects a provider subscription onto the stored snapshot.
//
// The function is pure and idempotent: the result depends only on the
// provider object, except for date fields the provider omitted (the
// previous values are kept) and SubscriptionStartedAt, which is set to
// now when absent and preserved otherwise. Because of this, handlers may
// re-run it for duplicate or out-of-order deliveries as long as the
// provider object is the event's own or freshly retrieved.
func Reconcile(current Snapshot, sub Subscription, premiumPriceID string, now time.Time) Snapshot {
	next := current

	plan := PlanFree
	if (sub.Status == StatusActive || sub.Status == StatusTrialing) && sub.PriceID == premiumPriceID {
		plan = PlanPremium
	}

	if t := epochTime(sub.CurrentPeriodStart); t != nil {
		next.CurrentPeriodStart = t
	}
	if t := epochTime(sub.CurrentPeriodEnd); t != nil {
		next.CurrentPeriodEnd = t
	}
	if t := epochTime(sub.CanceledAt); t != nil {
		next.CanceledAt = t
	}

	next.Status = sub.Status
	next.SubscriptionID = sub.ID
	next.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if sub.CustomerID != "" {
		next.CustomerID = sub.CustomerID
	}
	next.Plan = plan
	next.Subscribed = plan == PlanPremium

	if next.SubscriptionStartedAt == nil {
		t := now.UTC()
		next.SubscriptionStartedAt = &t
	}

	return next
}
