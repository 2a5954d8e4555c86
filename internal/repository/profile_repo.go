package repository

import (
	"context"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository provides data access for persona profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Upsert inserts or replaces the user's persona profile. The unique index
// on user_id gives the overwrite guarantee.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *db.PersonaProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"bio", "interests", "traits", "relationship_goal",
				"height_cm", "smoker", "drinker",
				"personality_summary", "embedding",
			}),
		}).
		Create(profile).Error
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uint64) (*db.PersonaProfile, error) {
	var profile db.PersonaProfile
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUserIDs batch-loads profiles for candidate scoring, keyed by user.
func (r *ProfileRepository) FindByUserIDs(ctx context.Context, userIDs []uint64) (map[uint64]*db.PersonaProfile, error) {
	out := make(map[uint64]*db.PersonaProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var profiles []db.PersonaProfile
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	for i := range profiles {
		out[profiles[i].UserID] = &profiles[i]
	}
	return out, nil
}
