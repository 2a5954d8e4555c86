// Package limits owns the per-user rolling-window activity counters and the
// gendered quota/cooldown rules layered on top of them. Every method that
// touches counters expects to run inside the caller's transaction, after
// CheckAndReset took the row lock, so quota checks cannot interleave.
package limits

import (
	"context"
	"time"

	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/policy"
	"github.com/kindling-app/kindling/internal/repository"
	"gorm.io/gorm"
)

// Limit kinds reported in quota rejections.
const (
	KindOnGrid   = "on_grid"
	KindOffGrid  = "off_grid"
	KindMessages = "messages"
)

// Tracker is the activity-limit state machine.
type Tracker struct {
	policy *policy.Policy

	// Now is swappable for window tests.
	Now func() time.Time
}

func NewTracker(pol *policy.Policy) *Tracker {
	return &Tracker{policy: pol, Now: time.Now}
}

// CheckAndReset locks the user's counter row, creating it lazily, and zeroes
// all counters when the reset window has lapsed. Returns the current row.
func (t *Tracker) CheckAndReset(ctx context.Context, tx *gorm.DB, userID uint64) (*db.ActivityLimits, error) {
	repo := repository.NewLimitsRepository(tx)
	now := t.Now().UTC()

	limits, err := repo.GetForUpdate(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if now.Sub(limits.LastResetAt) >= t.policy.ResetWindow {
		if err := repo.Reset(ctx, limits, now); err != nil {
			return nil, err
		}
	}
	return limits, nil
}

// ResetAt is the horizon at which the current window lapses, returned to
// clients so they can render a countdown.
func (t *Tracker) ResetAt(limits *db.ActivityLimits) time.Time {
	return limits.LastResetAt.Add(t.policy.ResetWindow)
}

// CheckLikeQuota rejects when the relevant like counter is exhausted.
// Premium users bypass the check entirely; their counters still accrue.
func (t *Tracker) CheckLikeQuota(user *db.User, limits *db.ActivityLimits, onGrid bool) error {
	if user.IsPremium {
		return nil
	}
	quota := t.policy.QuotaFor(user.Gender)
	if onGrid {
		if limits.OnGridLikesCount >= quota.OnGridLikes {
			return apperr.QuotaExceeded(KindOnGrid, quota.OnGridLikes, t.ResetAt(limits))
		}
		return nil
	}
	if limits.OffGridLikesCount >= quota.OffGridLikes {
		return apperr.QuotaExceeded(KindOffGrid, quota.OffGridLikes, t.ResetAt(limits))
	}
	return nil
}

// CheckMessageQuota rejects when the message counter is exhausted.
func (t *Tracker) CheckMessageQuota(user *db.User, limits *db.ActivityLimits) error {
	if user.IsPremium {
		return nil
	}
	quota := t.policy.QuotaFor(user.Gender)
	if limits.MessagesStartedCount >= quota.Messages {
		return apperr.QuotaExceeded(KindMessages, quota.Messages, t.ResetAt(limits))
	}
	return nil
}

// IncrementLike bumps the matching counter inside the caller's transaction.
func (t *Tracker) IncrementLike(ctx context.Context, tx *gorm.DB, limits *db.ActivityLimits, onGrid bool) error {
	if onGrid {
		limits.OnGridLikesCount++
	} else {
		limits.OffGridLikesCount++
	}
	return repository.NewLimitsRepository(tx).Save(ctx, limits)
}

// IncrementMessage bumps the message counter inside the caller's transaction.
func (t *Tracker) IncrementMessage(ctx context.Context, tx *gorm.DB, limits *db.ActivityLimits) error {
	limits.MessagesStartedCount++
	return repository.NewLimitsRepository(tx).Save(ctx, limits)
}

// EvaluateCooldown activates the user's cooldown when the cumulative like
// quota for their gender is exhausted. Returns the horizon when activated.
func (t *Tracker) EvaluateCooldown(ctx context.Context, tx *gorm.DB, user *db.User, limits *db.ActivityLimits) (*time.Time, error) {
	if !user.CooldownEnabled {
		return nil, nil
	}
	quota := t.policy.QuotaFor(user.Gender)
	if limits.OnGridLikesCount+limits.OffGridLikesCount < quota.LikeSum() {
		return nil, nil
	}
	until := t.Now().UTC().Add(t.policy.CooldownDuration)
	if err := repository.NewUserRepository(tx).SetCooldownUntil(ctx, user.ID, until); err != nil {
		return nil, err
	}
	user.CooldownUntil = &until
	return &until, nil
}

// Remaining reports the likes left in the current window, floored at zero.
func (t *Tracker) Remaining(user *db.User, limits *db.ActivityLimits) (onGrid, offGrid int) {
	quota := t.policy.QuotaFor(user.Gender)
	onGrid = quota.OnGridLikes - limits.OnGridLikesCount
	offGrid = quota.OffGridLikes - limits.OffGridLikesCount
	if onGrid < 0 {
		onGrid = 0
	}
	if offGrid < 0 {
		offGrid = 0
	}
	return onGrid, offGrid
}
