package policy

import "time"

// Quota is the per-reset-window allowance for one gender.
type Quota struct {
	OnGridLikes  int
	OffGridLikes int
	Messages     int
}

// LikeSum is the combined like allowance used for cooldown evaluation.
func (q Quota) LikeSum() int { return q.OnGridLikes + q.OffGridLikes }

// Policy centralizes every numeric rule the engines enforce: quota sizes,
// window lengths and credit costs. Engines receive a *Policy so tests can
// override values without touching logic.
type Policy struct {
	// Quotas is keyed by gender ("male", "female"). Unknown genders fall
	// back to the male quota.
	Quotas map[string]Quota

	ResetWindow      time.Duration
	CooldownDuration time.Duration

	SuperlikeCost  int64
	ComplimentCost int64
	BoostCost      int64
	AISearchCost   int64
	SignupCredits  int64

	BoostDuration time.Duration
	MaxDistanceKm float64
}

// Default returns the production policy.
func Default() *Policy {
	return &Policy{
		Quotas: map[string]Quota{
			"male":   {OnGridLikes: 1, OffGridLikes: 4, Messages: 3},
			"female": {OnGridLikes: 3, OffGridLikes: 7, Messages: 10},
		},
		ResetWindow:      12 * time.Hour,
		CooldownDuration: 10 * time.Hour,
		SuperlikeCost:    5,
		ComplimentCost:   5,
		BoostCost:        10,
		AISearchCost:     1,
		SignupCredits:    10,
		BoostDuration:    30 * time.Minute,
		MaxDistanceKm:    100,
	}
}

// QuotaFor returns the quota for the given gender.
func (p *Policy) QuotaFor(gender string) Quota {
	if q, ok := p.Quotas[gender]; ok {
		return q
	}
	return p.Quotas["male"]
}
