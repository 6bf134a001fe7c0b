package billing

// Config holds billing provider credentials and checkout settings.
// The premium price ID is the provider-side identifier the reconciler
// compares subscription line items against when deriving the plan.
type Config struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET,required"`
	PremiumPriceID string `env:"BILLING_PREMIUM_PRICE_ID,required"`
	SuccessURL     string `env:"BILLING_SUCCESS_URL,required"`
	CancelURL      string `env:"BILLING_CANCEL_URL,required"`
}
