// Package message handles in-match messaging under the gendered daily
// message quota.
package message

import (
	"context"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/notify"
	"github.com/kindling-app/kindling/internal/repository"
	"github.com/kindling-app/kindling/internal/service/limits"
	"gorm.io/gorm"
)

// Service sends and lists messages.
type Service struct {
	appCtx  *app.AppContext
	tracker *limits.Tracker
}

func NewService(appCtx *app.AppContext, tracker *limits.Tracker) *Service {
	return &Service{appCtx: appCtx, tracker: tracker}
}

// Send delivers a message into a match. The sender's message counter is
// checked and incremented under the same transaction as the insert, so two
// concurrent sends cannot both squeeze past the quota.
func (s *Service) Send(ctx context.Context, senderID, matchID uint64, body string) (*db.Message, error) {
	if body == "" {
		return nil, apperr.Validation("message body is required")
	}

	var (
		msg         db.Message
		recipientID uint64
	)
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		match, err := repository.NewMatchRepository(tx).FindByIDForUpdate(ctx, matchID)
		if err != nil {
			return apperr.NotFound("match not found")
		}
		recipientID = match.Other(senderID)
		if recipientID == 0 {
			return apperr.NotFound("match not found")
		}

		sender, err := repository.NewUserRepository(tx).FindByID(ctx, senderID)
		if err != nil {
			return err
		}

		limitsRow, err := s.tracker.CheckAndReset(ctx, tx, senderID)
		if err != nil {
			return err
		}
		if err := s.tracker.CheckMessageQuota(sender, limitsRow); err != nil {
			return err
		}

		msg = db.Message{MatchID: matchID, SenderID: senderID, Body: body}
		if err := repository.NewMessageRepository(tx).Create(ctx, &msg); err != nil {
			return err
		}
		if err := s.tracker.IncrementMessage(ctx, tx, limitsRow); err != nil {
			return err
		}
		return repository.NewMatchRepository(tx).TouchLastMessage(ctx, matchID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.appCtx.Notifier.Notify(recipientID, notify.KindMessageReceived, map[string]any{
		"match_id": matchID,
		"user_id":  senderID,
	})

	return &msg, nil
}

// List returns a match's messages for one of its participants.
func (s *Service) List(ctx context.Context, userID, matchID uint64, beforeID uint64, limit int) ([]db.Message, error) {
	match, err := repository.NewMatchRepository(s.appCtx.DB).FindByID(ctx, matchID)
	if err != nil {
		return nil, apperr.NotFound("match not found")
	}
	if match.Other(userID) == 0 {
		return nil, apperr.NotFound("match not found")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return repository.NewMessageRepository(s.appCtx.DB).ListByMatch(ctx, matchID, beforeID, limit)
}
