// Package billing keeps a locally persisted subscription snapshot
// consistent with an external billing provider that owns payment truth.
//
// The provider communicates through two non-synchronized channels:
// asynchronous webhook events (possibly duplicated, possibly out of
// order) and synchronous queries made on demand by user actions. Both
// may mutate the same user's snapshot concurrently, so every write goes
// through one pure projection, Reconcile, whose result depends only on
// the provider object it is given. Re-running a handler with the same or
// a later provider object converges to the same state, which makes
// last-write-wins at the store layer safe.
//
// # Architecture
//
//   - Service: status, checkout, cancel/resume, invoices, webhook handling
//   - Provider: narrow billing-provider surface (StripeProvider included)
//   - Reconcile: pure merge of a provider subscription onto the snapshot
//   - SnapshotStore: persistence (in-memory, MongoDB, PostgreSQL included)
//   - EventDeduper: optional webhook redelivery short-circuit (Redis included)
//
// User actions never trust the cached snapshot for decisions that create
// provider state: Checkout re-reads the authoritative subscription first,
// clears stale local references when the provider reports them gone, and
// self-heals the cache when the provider knows a subscription the local
// record missed.
//
// # Quick Start
//
//	var cfg billing.Config
//	config.MustLoad(&cfg)
//
//	provider, err := billing.NewStripeProvider(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc := billing.NewService(cfg, provider, billing.NewMemStore(),
//		billing.WithLogger(logger),
//	)
//
//	url, err := svc.Checkout(ctx, userID, "user@example.com")
//
// Webhook deliveries are verified against the raw request body:
//
//	if err := svc.HandleWebhook(ctx, rawBody, r.Header.Get("Stripe-Signature")); err != nil {
//		// respond 400 on billing.ErrInvalidSignature, 500 otherwise so
//		// the provider redelivers
//	}
package billing
