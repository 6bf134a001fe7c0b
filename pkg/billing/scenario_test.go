package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/billing"
)

// End-to-end flows over the real in-memory store, with only the provider
// mocked out.

func TestScenario_FreeUserSubscribes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	userID := uuid.New()

	store := billing.NewMemStore()
	provider := &mockProvider{}
	provider.On("CreateCustomer", mock.Anything, "new@example.com", userID.String()).
		Return("cus_new", nil)
	provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&billing.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil)

	svc := billing.NewService(testConfig(), provider, store)

	// Checkout creates the customer link but no subscription yet.
	url, err := svc.Checkout(ctx, userID, "new@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	// Until the provider confirms, the user stays on the free plan.
	snap, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, billing.PlanFree, snap.Plan)
	assert.Equal(t, "cus_new", snap.CustomerID)
	assert.False(t, snap.Subscribed)

	// The subscription-created event flips the plan.
	sub := providerSub()
	sub.CustomerID = "cus_new"
	provider.On("ParseEvent", mock.Anything, "sig").Return(&billing.Event{
		ID:           "evt_created",
		Type:         billing.EventSubscriptionCreated,
		CustomerID:   "cus_new",
		Subscription: &sub,
	}, nil).Once()
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	snap, err = svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, billing.PlanPremium, snap.Plan)
	assert.True(t, snap.Subscribed)
	assert.Equal(t, "sub_123", snap.SubscriptionID)
	assert.NotNil(t, snap.SubscriptionStartedAt)
}

func TestScenario_PremiumUserSubscriptionDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	userID := uuid.New()

	store := billing.NewMemStore()
	require.NoError(t, store.Save(ctx, userID, premiumSnapshot()))

	provider := &mockProvider{}
	sub := providerSub()
	sub.Status = billing.StatusCanceled
	provider.On("ParseEvent", mock.Anything, "sig").Return(&billing.Event{
		ID:           "evt_deleted",
		Type:         billing.EventSubscriptionDeleted,
		CustomerID:   "cus_123",
		Subscription: &sub,
	}, nil).Once()

	svc := billing.NewService(testConfig(), provider, store)
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{}`), "sig"))

	snap, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCanceled, snap.Status)
	assert.Equal(t, billing.PlanFree, snap.Plan)
	assert.False(t, snap.Subscribed)
	require.NotNil(t, snap.CanceledAt)
}
