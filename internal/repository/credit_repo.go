package repository

import (
	"context"

	"github.com/kindling-app/kindling/internal/db"
	"gorm.io/gorm"
)

// CreditRepository provides the ledger's storage primitives. The debit is a
// single conditional UPDATE so two concurrent debits on the same user can
// never both succeed past the balance.
type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(database *gorm.DB) *CreditRepository {
	return &CreditRepository{db: database}
}

// TryDebit atomically decrements the balance if and only if it covers the
// amount. Returns false when the guard rejected the update.
func (r *CreditRepository) TryDebit(ctx context.Context, userID uint64, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ? AND credit_balance >= ?", userID, amount).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Credit increments the balance unconditionally.
func (r *CreditRepository) Credit(ctx context.Context, userID uint64, amount int64) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendTransaction writes one immutable ledger row.
func (r *CreditRepository) AppendTransaction(ctx context.Context, txRow *db.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(txRow).Error
}

// Balance is a pure read.
func (r *CreditRepository) Balance(ctx context.Context, userID uint64) (int64, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Select("credit_balance").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.CreditBalance, nil
}

// History lists the user's ledger rows, newest first.
func (r *CreditRepository) History(ctx context.Context, userID uint64, limit int) ([]db.CreditTransaction, error) {
	var rows []db.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
