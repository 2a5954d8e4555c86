package repository

import (
	"context"
	"time"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository provides data access for Match rows.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateCanonical inserts the match for an unordered pair, normalizing to
// (min, max) so the unique index plus conflict-do-nothing semantics make
// concurrent reciprocal-like races collapse onto exactly one row. Returns
// the surviving row either way.
func (r *MatchRepository) CreateCanonical(ctx context.Context, a, b uint64) (*db.Match, error) {
	if a > b {
		a, b = b, a
	}
	match := db.Match{User1ID: a, User2ID: b}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&match).Error
	if err != nil {
		return nil, err
	}
	if match.ID == 0 {
		// conflict path: the other side won the race, read their row
		if err := r.db.WithContext(ctx).
			Where("user1_id = ? AND user2_id = ?", a, b).
			First(&match).Error; err != nil {
			return nil, err
		}
	}
	return &match, nil
}

// FindByPair looks up the match for an unordered pair.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	if a > b {
		a, b = b, a
	}
	var match db.Match
	if err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", a, b).
		First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *MatchRepository) FindByID(ctx context.Context, id uint64) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// FindByIDForUpdate loads the match under a row lock so unmatch and
// message writes on the same match serialize.
func (r *MatchRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*db.Match, error) {
	var match db.Match
	if err := lockForUpdate(r.db.WithContext(ctx)).
		First(&match, id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// ListForUser returns a user's matches, most recently active first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("COALESCE(last_message_at, matched_at) DESC").
		Find(&matches).Error
	return matches, err
}

func (r *MatchRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&db.Match{}, id).Error
}

// DeleteByPair removes the match between an unordered pair, if any.
func (r *MatchRepository) DeleteByPair(ctx context.Context, a, b uint64) error {
	if a > b {
		a, b = b, a
	}
	return r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", a, b).
		Delete(&db.Match{}).Error
}

// TouchLastMessage bumps the activity timestamp used for match ordering.
func (r *MatchRepository) TouchLastMessage(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.Match{}).
		Where("id = ?", id).
		UpdateColumn("last_message_at", at).Error
}
