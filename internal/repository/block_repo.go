package repository

import (
	"context"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository provides data access for directional blocks.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Create inserts the block; re-blocking is a no-op.
func (r *BlockRepository) Create(ctx context.Context, blockerID, blockedID uint64) error {
	block := db.Block{BlockerID: blockerID, BlockedID: blockedID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&block).Error
}

// ExistsBetween reports whether a block exists in either direction.
func (r *BlockRepository) ExistsBetween(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// BlockedIDs returns every user blocked by or blocking the given user, for
// search exclusion.
func (r *BlockRepository) BlockedIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var out []uint64

	var blocked []uint64
	if err := r.db.WithContext(ctx).Model(&db.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &blocked).Error; err != nil {
		return nil, err
	}
	out = append(out, blocked...)

	var blockers []uint64
	if err := r.db.WithContext(ctx).Model(&db.Block{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &blockers).Error; err != nil {
		return nil, err
	}
	out = append(out, blockers...)

	return out, nil
}
