// Package credits is the append-only credit ledger. The balance check and
// decrement are one conditional UPDATE, so concurrent debits on the same
// user serialize in the store and the balance can never go negative.
package credits

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/repository"
	"gorm.io/gorm"
)

// Service implements the credit ledger.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(database *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: database, logger: logger}
}

// Consume debits amount from the user, failing with InsufficientCredits
// when the balance does not cover it. Returns the new balance.
func (s *Service) Consume(ctx context.Context, userID uint64, amount int64, reason string, metadata map[string]any) (int64, error) {
	var newBalance int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.ConsumeIn(ctx, tx, userID, amount, reason, metadata)
		return err
	})
	return newBalance, err
}

// ConsumeIn is Consume for callers that already hold a transaction, so the
// debit rolls back with the rest of their operation.
func (s *Service) ConsumeIn(ctx context.Context, tx *gorm.DB, userID uint64, amount int64, reason string, metadata map[string]any) (int64, error) {
	if amount <= 0 {
		return 0, apperr.Validation("debit amount must be positive")
	}
	repo := repository.NewCreditRepository(tx)

	ok, err := repo.TryDebit(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		// distinguish a missing user from an underfunded one
		balance, err := repo.Balance(ctx, userID)
		if err != nil {
			return 0, err
		}
		s.logger.Debug("debit rejected", "user", userID, "amount", amount, "balance", balance, "reason", reason)
		return 0, apperr.InsufficientCredits(balance, amount)
	}

	if err := repo.AppendTransaction(ctx, &db.CreditTransaction{
		UserID:    userID,
		Amount:    amount,
		Direction: db.DirectionDebit,
		Reason:    reason,
		Metadata:  encodeMetadata(metadata),
		Reference: uuid.NewString(),
	}); err != nil {
		return 0, err
	}

	return repo.Balance(ctx, userID)
}

// Grant credits amount to the user and logs it.
func (s *Service) Grant(ctx context.Context, userID uint64, amount int64, reason string, metadata map[string]any) (int64, error) {
	if amount <= 0 {
		return 0, apperr.Validation("credit amount must be positive")
	}
	var newBalance int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewCreditRepository(tx)
		if err := repo.Credit(ctx, userID, amount); err != nil {
			return err
		}
		if err := repo.AppendTransaction(ctx, &db.CreditTransaction{
			UserID:    userID,
			Amount:    amount,
			Direction: db.DirectionCredit,
			Reason:    reason,
			Metadata:  encodeMetadata(metadata),
			Reference: uuid.NewString(),
		}); err != nil {
			return err
		}
		var err error
		newBalance, err = repo.Balance(ctx, userID)
		return err
	})
	return newBalance, err
}

// Balance is a pure read of the user's current balance.
func (s *Service) Balance(ctx context.Context, userID uint64) (int64, error) {
	return repository.NewCreditRepository(s.db).Balance(ctx, userID)
}

// History returns the user's most recent ledger rows.
func (s *Service) History(ctx context.Context, userID uint64, limit int) ([]db.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return repository.NewCreditRepository(s.db).History(ctx, userID, limit)
}

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}
