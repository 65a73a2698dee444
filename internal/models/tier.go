package models

// Tier is a subscription level.
type Tier string

const (
	TierFree  Tier = "free"
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

// UnlimitedHooks is the HooksLimit sentinel for tiers without a per-period cap.
const UnlimitedHooks = -1

type tierPlan struct {
	hooksLimit int
	batchSize  int
}

// Batch sizes differ from the period limits on purpose: a pro account is
// uncapped across the period but every generation still returns 20 hooks.
var tierPlans = map[Tier]tierPlan{
	TierFree:  {hooksLimit: 2, batchSize: 2},
	TierBasic: {hooksLimit: 10, batchSize: 10},
	TierPro:   {hooksLimit: UnlimitedHooks, batchSize: 20},
}

// ParseTier returns the tier named by s and whether it is one of the known tiers.
func ParseTier(s string) (Tier, bool) {
	t := Tier(s)
	_, ok := tierPlans[t]
	return t, ok
}

func (t Tier) Valid() bool {
	_, ok := tierPlans[t]
	return ok
}

// HooksLimit is the per-period generation allowance. Unknown tiers get the free plan.
func (t Tier) HooksLimit() int {
	if p, ok := tierPlans[t]; ok {
		return p.hooksLimit
	}
	return tierPlans[TierFree].hooksLimit
}

// BatchSize is the number of hooks a single generation produces.
func (t Tier) BatchSize() int {
	if p, ok := tierPlans[t]; ok {
		return p.batchSize
	}
	return tierPlans[TierFree].batchSize
}

// Paid reports whether the tier is sold through the payment processor.
func (t Tier) Paid() bool {
	return t == TierBasic || t == TierPro
}
