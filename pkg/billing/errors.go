package billing

import "errors"

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrSubscriptionGone = errors.New("provider subscription no longer exists")

	// Policy rejections surfaced to callers as expected 400-class outcomes.
	ErrAlreadySubscribed      = errors.New("user already has an existing subscription")
	ErrEndingSoon             = errors.New("subscription is scheduled to end soon")
	ErrNoActiveSubscription   = errors.New("no active premium subscription found")
	ErrNoCanceledSubscription = errors.New("no canceled subscription found")
	ErrNoBillingHistory       = errors.New("no subscription history found")

	ErrSnapshotNotFound = errors.New("billing snapshot not found")

	// Provider configuration errors
	ErrMissingSecretKey      = errors.New("billing provider secret key is required")
	ErrMissingWebhookSecret  = errors.New("billing provider webhook secret is required")
	ErrMissingPremiumPriceID = errors.New("premium price ID is required")
)
