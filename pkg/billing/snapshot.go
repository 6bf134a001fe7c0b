package billing

import "time"

// Plan is the locally derived subscription tier. It is never set from
// external input directly; Reconcile derives it from provider state.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Status mirrors the provider-reported subscription status verbatim.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusUnpaid   Status = "unpaid"
	StatusCanceled Status = "canceled"
)

// Snapshot is the billing state persisted inside a user record.
// Each user has at most one snapshot; all writes replace it as a whole
// so a webhook handler and a concurrent user action never leave a
// half-updated field group behind.
type Snapshot struct {
	Status                Status     `json:"status" bson:"status"`
	Plan                  Plan       `json:"plan" bson:"plan"`
	SubscriptionID        string     `json:"subscription_id,omitempty" bson:"subscription_id,omitempty"`
	CustomerID            string     `json:"customer_id,omitempty" bson:"customer_id,omitempty"`
	CurrentPeriodStart    *time.Time `json:"current_period_start,omitempty" bson:"current_period_start,omitempty"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty" bson:"current_period_end,omitempty"`
	CancelAtPeriodEnd     bool       `json:"cancel_at_period_end" bson:"cancel_at_period_end"`
	CanceledAt            *time.Time `json:"canceled_at,omitempty" bson:"canceled_at,omitempty"`
	SubscriptionStartedAt *time.Time `json:"subscription_started_at,omitempty" bson:"subscription_started_at,omitempty"`
	Subscribed            bool       `json:"subscribed" bson:"subscribed"`
}

// DefaultSnapshot is the state reported for users who never subscribed.
// Absence of a stored snapshot is distinct from a canceled subscription.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Status: StatusActive,
		Plan:   PlanFree,
	}
}

// IsPremium returns true if the snapshot reflects a paid plan.
func (s Snapshot) IsPremium() bool {
	return s.Plan == PlanPremium
}

// blocksNewCheckout reports whether a provider-side subscription in this
// status must prevent creating a second one.
func blocksNewCheckout(status Status) bool {
	switch status {
	case StatusActive, StatusTrialing, StatusPastDue, StatusUnpaid:
		return true
	default:
		return false
	}
}
