package repository

import (
	"context"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
)

// MessageRepository provides data access for messages inside a match.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Create(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByMatch returns messages newest first, keyset-paginated on id.
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID uint64, beforeID uint64, limit int) ([]db.Message, error) {
	query := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}
	var msgs []db.Message
	err := query.Find(&msgs).Error
	return msgs, err
}

// DeleteByMatch purges a match's messages (unmatch, block).
func (r *MessageRepository) DeleteByMatch(ctx context.Context, matchID uint64) error {
	return r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Delete(&db.Message{}).Error
}
