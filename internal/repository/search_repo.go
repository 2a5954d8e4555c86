package repository

import (
	"context"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
)

// SearchHistoryRepository persists raw search queries so the off-grid
// refresh can replay the seeker's last search.
type SearchHistoryRepository struct {
	db *gorm.DB
}

func NewSearchHistoryRepository(database *gorm.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: database}
}

func (r *SearchHistoryRepository) Append(ctx context.Context, row *db.SearchHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// Latest returns the user's most recent search, or gorm.ErrRecordNotFound.
func (r *SearchHistoryRepository) Latest(ctx context.Context, userID uint64) (*db.SearchHistory, error) {
	var row db.SearchHistory
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
