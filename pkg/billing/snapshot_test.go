package billing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/billing"
)

func TestDefaultSnapshot(t *testing.T) {
	t.Parallel()

	snap := billing.DefaultSnapshot()
	assert.Equal(t, billing.StatusActive, snap.Status)
	assert.Equal(t, billing.PlanFree, snap.Plan)
	assert.False(t, snap.Subscribed)
	assert.False(t, snap.IsPremium())
}

func TestSnapshot_IsPremium(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status billing.Status
		plan   billing.Plan
		want   bool
	}{
		{"active premium", billing.StatusActive, billing.PlanPremium, true},
		{"trialing premium", billing.StatusTrialing, billing.PlanPremium, true},
		{"past_due premium", billing.StatusPastDue, billing.PlanPremium, false},
		{"canceled premium", billing.StatusCanceled, billing.PlanPremium, false},
		{"active free", billing.StatusActive, billing.PlanFree, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snap := billing.Snapshot{Status: tt.status, Plan: tt.plan}
			assert.Equal(t, tt.want, snap.IsPremium())
		})
	}
}

func TestSnapshot_JSONOmitsAbsentDates(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(billing.DefaultSnapshot())
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "current_period_end")
	assert.NotContains(t, string(raw), "canceled_at")
	assert.Contains(t, string(raw), `"plan":"free"`)
}
