package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
)

// LimitsRepository provides row-locked access to the per-user activity
// counters. All methods must run inside the caller's transaction so the
// read-modify-write sequence is race-free.
type LimitsRepository struct {
	db *gorm.DB
}

func NewLimitsRepository(database *gorm.DB) *LimitsRepository {
	return &LimitsRepository{db: database}
}

// GetForUpdate loads the user's counter row under a row lock, creating it
// lazily with zero counts on first use.
func (r *LimitsRepository) GetForUpdate(ctx context.Context, userID uint64, now time.Time) (*db.ActivityLimits, error) {
	var limits db.ActivityLimits
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&limits).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		limits = db.ActivityLimits{UserID: userID, LastResetAt: now}
		if err := r.db.WithContext(ctx).Create(&limits).Error; err != nil {
			return nil, err
		}
		return &limits, nil
	}
	if err != nil {
		return nil, err
	}
	return &limits, nil
}

// Reset zeroes all three counters and restarts the window.
func (r *LimitsRepository) Reset(ctx context.Context, limits *db.ActivityLimits, now time.Time) error {
	limits.OnGridLikesCount = 0
	limits.OffGridLikesCount = 0
	limits.MessagesStartedCount = 0
	limits.LastResetAt = now
	return r.db.WithContext(ctx).Model(&db.ActivityLimits{}).
		Where("user_id = ?", limits.UserID).
		Updates(map[string]any{
			"on_grid_likes_count":    0,
			"off_grid_likes_count":   0,
			"messages_started_count": 0,
			"last_reset_at":          now,
		}).Error
}

// Save persists the in-memory counter values.
func (r *LimitsRepository) Save(ctx context.Context, limits *db.ActivityLimits) error {
	return r.db.WithContext(ctx).Model(&db.ActivityLimits{}).
		Where("user_id = ?", limits.UserID).
		Updates(map[string]any{
			"on_grid_likes_count":    limits.OnGridLikesCount,
			"off_grid_likes_count":   limits.OffGridLikesCount,
			"messages_started_count": limits.MessagesStartedCount,
		}).Error
}
