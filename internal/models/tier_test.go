package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierPlans(t *testing.T) {
	tests := []struct {
		tier      Tier
		limit     int
		batchSize int
	}{
		{TierFree, 2, 2},
		{TierBasic, 10, 10},
		{TierPro, UnlimitedHooks, 20},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.True(t, tt.tier.Valid())
			assert.Equal(t, tt.limit, tt.tier.HooksLimit())
			assert.Equal(t, tt.batchSize, tt.tier.BatchSize())
		})
	}
}

func TestUnknownTierFallsBackToFree(t *testing.T) {
	tier, ok := ParseTier("enterprise")
	assert.False(t, ok)
	assert.False(t, tier.Valid())
	assert.Equal(t, 2, tier.HooksLimit())
	assert.Equal(t, 2, tier.BatchSize())
}

func TestTierPaid(t *testing.T) {
	assert.False(t, TierFree.Paid())
	assert.True(t, TierBasic.Paid())
	assert.True(t, TierPro.Paid())
}

func TestUserHasQuota(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"free with room", User{SubscriptionTier: TierFree, HooksUsed: 1, HooksLimit: 2}, true},
		{"free at limit", User{SubscriptionTier: TierFree, HooksUsed: 2, HooksLimit: 2}, false},
		{"basic over limit", User{SubscriptionTier: TierBasic, HooksUsed: 11, HooksLimit: 10}, false},
		{"pro sentinel", User{SubscriptionTier: TierPro, HooksUsed: 5000, HooksLimit: UnlimitedHooks}, true},
		{"pro with stale limit", User{SubscriptionTier: TierPro, HooksUsed: 10, HooksLimit: 10}, true},
		{"sentinel on any tier", User{SubscriptionTier: TierBasic, HooksUsed: 99, HooksLimit: UnlimitedHooks}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasQuota())
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	first, last, empty := "Ada", "Lovelace", ""

	assert.Equal(t, "Ada Lovelace", (&User{Email: "a@x.io", FirstName: &first, LastName: &last}).DisplayName())
	assert.Equal(t, "Ada", (&User{Email: "a@x.io", FirstName: &first, LastName: &empty}).DisplayName())
	assert.Equal(t, "Lovelace", (&User{Email: "a@x.io", LastName: &last}).DisplayName())
	assert.Equal(t, "a@x.io", (&User{Email: "a@x.io"}).DisplayName())
}
