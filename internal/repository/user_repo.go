package repository

import (
	"context"
	"time"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
)

// UserRepository provides data access for User rows.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a repository bound to the given DB connection
// or transaction.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SetCooldownUntil stamps the cooldown horizon on the user row.
func (r *UserRepository) SetCooldownUntil(ctx context.Context, userID uint64, until time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("cooldown_until", until).Error
}

func (r *UserRepository) SetBoost(ctx context.Context, userID uint64, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("boost_expires_at", expiresAt).Error
}

func (r *UserRepository) SetIncognito(ctx context.Context, userID uint64, incognito bool) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("is_incognito", incognito).Error
}

func (r *UserRepository) SetVerified(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("is_verified", true).Error
}

func (r *UserRepository) SetBanned(ctx context.Context, userID uint64, banned bool) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("is_banned", banned).Error
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at).Error
}
