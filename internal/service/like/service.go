// Package like implements the like/match state machine: quota-checked like
// insertion, superlike and compliment charging, mutual-like detection with
// race-safe match creation, blocking and unmatching.
package like

import (
	"context"
	"errors"
	"time"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/notify"
	"github.com/kindling-app/kindling/internal/repository"
	"github.com/kindling-app/kindling/internal/service/credits"
	"github.com/kindling-app/kindling/internal/service/limits"
	"gorm.io/gorm"
)

// Result is the outcome of a like or compliment.
type Result struct {
	IsMatch          bool
	MatchID          *uint64
	RemainingOnGrid  int
	RemainingOffGrid int
	CooldownUntil    *time.Time
}

// Service is the like/match engine.
type Service struct {
	appCtx  *app.AppContext
	credits *credits.Service
	tracker *limits.Tracker
}

func NewService(appCtx *app.AppContext, creditSvc *credits.Service, tracker *limits.Tracker) *Service {
	return &Service{appCtx: appCtx, credits: creditSvc, tracker: tracker}
}

// Like runs the whole state machine inside one transaction: quota check,
// cooldown/block/duplicate rejection, optional superlike debit, insert,
// counter increment, mutual-match detection and cooldown evaluation.
// Nothing partial survives a failure.
func (s *Service) Like(ctx context.Context, likerID, targetID uint64, onGrid, superlike bool) (*Result, error) {
	if likerID == targetID {
		return nil, apperr.Validation("cannot like yourself")
	}

	var (
		result  Result
		matched *db.Match
	)
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)

		target, err := users.FindByID(ctx, targetID)
		if err != nil {
			return apperr.NotFound("target user not found")
		}
		liker, err := users.FindByID(ctx, likerID)
		if err != nil {
			return err
		}

		// lock the liker's counters for the rest of the transaction
		limitsRow, err := s.tracker.CheckAndReset(ctx, tx, likerID)
		if err != nil {
			return err
		}
		if err := s.tracker.CheckLikeQuota(liker, limitsRow, onGrid); err != nil {
			return err
		}

		// a target in cooldown only accepts premium likes (bookmark)
		now := s.tracker.Now().UTC()
		if target.InCooldown(now) && !liker.IsPremium {
			return apperr.CooldownActive(*target.CooldownUntil)
		}

		blocks := repository.NewBlockRepository(tx)
		blocked, err := blocks.ExistsBetween(ctx, likerID, targetID)
		if err != nil {
			return err
		}
		if blocked {
			return apperr.Authorization("users are blocked")
		}

		likesRepo := repository.NewLikeRepository(tx)
		exists, err := likesRepo.Exists(ctx, likerID, targetID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("already liked this user")
		}

		if superlike {
			if _, err := s.credits.ConsumeIn(ctx, tx, likerID, s.appCtx.Policy.SuperlikeCost, "superlike",
				map[string]any{"target_user_id": targetID}); err != nil {
				return err
			}
		}

		if err := likesRepo.Create(ctx, &db.Like{
			LikerID:     likerID,
			LikedID:     targetID,
			IsOnGrid:    onGrid,
			IsSuperlike: superlike,
		}); err != nil {
			return err
		}

		if err := s.tracker.IncrementLike(ctx, tx, limitsRow, onGrid); err != nil {
			return err
		}

		// reciprocal like present → exactly one match row per unordered pair
		mutual, err := likesRepo.Exists(ctx, targetID, likerID)
		if err != nil {
			return err
		}
		if mutual {
			match, err := repository.NewMatchRepository(tx).CreateCanonical(ctx, likerID, targetID)
			if err != nil {
				return err
			}
			matched = match
			result.IsMatch = true
			result.MatchID = &match.ID
		}

		cooldownUntil, err := s.tracker.EvaluateCooldown(ctx, tx, liker, limitsRow)
		if err != nil {
			return err
		}
		result.CooldownUntil = cooldownUntil
		result.RemainingOnGrid, result.RemainingOffGrid = s.tracker.Remaining(liker, limitsRow)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// notifications only after commit, best-effort
	if matched != nil {
		s.appCtx.Notifier.Notify(likerID, notify.KindMatchCreated, map[string]any{"match_id": matched.ID, "user_id": targetID})
		s.appCtx.Notifier.Notify(targetID, notify.KindMatchCreated, map[string]any{"match_id": matched.ID, "user_id": likerID})
	} else {
		s.appCtx.Notifier.Notify(targetID, notify.KindLikeReceived, map[string]any{"user_id": likerID})
	}
	s.appCtx.RedisCache.BumpAdmirerCount(ctx, targetID)

	return &result, nil
}

// Compliment attaches a message to a like. It costs credits unconditionally
// and bypasses the daily like quota; the debit failing aborts before any
// row mutation.
func (s *Service) Compliment(ctx context.Context, likerID, targetID uint64, text string) (*Result, error) {
	if likerID == targetID {
		return nil, apperr.Validation("cannot compliment yourself")
	}
	if text == "" {
		return nil, apperr.Validation("compliment text is required")
	}

	var (
		result  Result
		matched *db.Match
	)
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		if _, err := users.FindByID(ctx, targetID); err != nil {
			return apperr.NotFound("target user not found")
		}

		blocks := repository.NewBlockRepository(tx)
		blocked, err := blocks.ExistsBetween(ctx, likerID, targetID)
		if err != nil {
			return err
		}
		if blocked {
			return apperr.Authorization("users are blocked")
		}

		if _, err := s.credits.ConsumeIn(ctx, tx, likerID, s.appCtx.Policy.ComplimentCost, "compliment",
			map[string]any{"target_user_id": targetID}); err != nil {
			return err
		}

		likesRepo := repository.NewLikeRepository(tx)
		if err := likesRepo.UpsertCompliment(ctx, likerID, targetID, text); err != nil {
			return err
		}

		mutual, err := likesRepo.Exists(ctx, targetID, likerID)
		if err != nil {
			return err
		}
		if mutual {
			match, err := repository.NewMatchRepository(tx).CreateCanonical(ctx, likerID, targetID)
			if err != nil {
				return err
			}
			matched = match
			result.IsMatch = true
			result.MatchID = &match.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if matched != nil {
		s.appCtx.Notifier.Notify(likerID, notify.KindMatchCreated, map[string]any{"match_id": matched.ID, "user_id": targetID})
		s.appCtx.Notifier.Notify(targetID, notify.KindMatchCreated, map[string]any{"match_id": matched.ID, "user_id": likerID})
	} else {
		s.appCtx.Notifier.Notify(targetID, notify.KindLikeReceived, map[string]any{"user_id": likerID, "compliment": text})
	}

	return &result, nil
}

// Unmatch deletes the match and both directional likes so the pair can
// re-like later. The match row is locked for the duration.
func (s *Service) Unmatch(ctx context.Context, userID, matchID uint64) error {
	return s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		matches := repository.NewMatchRepository(tx)
		match, err := matches.FindByIDForUpdate(ctx, matchID)
		if err != nil {
			return apperr.NotFound("match not found")
		}
		if match.Other(userID) == 0 {
			return apperr.NotFound("match not found")
		}
		if err := repository.NewMessageRepository(tx).DeleteByMatch(ctx, matchID); err != nil {
			return err
		}
		if err := repository.NewLikeRepository(tx).DeletePair(ctx, match.User1ID, match.User2ID); err != nil {
			return err
		}
		return matches.Delete(ctx, matchID)
	})
}

// Block creates the block and atomically purges any likes, match and
// messages between the pair.
func (s *Service) Block(ctx context.Context, blockerID, blockedID uint64) error {
	if blockerID == blockedID {
		return apperr.Validation("cannot block yourself")
	}
	return s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := repository.NewUserRepository(tx).FindByID(ctx, blockedID); err != nil {
			return apperr.NotFound("user not found")
		}
		if err := repository.NewBlockRepository(tx).Create(ctx, blockerID, blockedID); err != nil {
			return err
		}

		matches := repository.NewMatchRepository(tx)
		match, err := matches.FindByPair(ctx, blockerID, blockedID)
		switch {
		case err == nil:
			if err := repository.NewMessageRepository(tx).DeleteByMatch(ctx, match.ID); err != nil {
				return err
			}
			if err := matches.Delete(ctx, match.ID); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			// a lookup failure must fail the whole block, not skip the purge
			return err
		}

		return repository.NewLikeRepository(tx).DeletePair(ctx, blockerID, blockedID)
	})
}

// ListMatches returns the user's matches, most recently active first.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]db.Match, error) {
	return repository.NewMatchRepository(s.appCtx.DB).ListForUser(ctx, userID)
}

// ListAdmirers returns who liked the user, cursor paginated.
func (s *Service) ListAdmirers(ctx context.Context, userID uint64, token *string, limit int) ([]db.Like, *string, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return repository.NewLikeRepository(s.appCtx.DB).ListAdmirers(ctx, userID, token, limit)
}

// CountAdmirers returns the "who liked me" count, cache-first with the DB
// as fallback.
func (s *Service) CountAdmirers(ctx context.Context, userID uint64) (int64, error) {
	if count, hit, err := s.appCtx.RedisCache.GetAdmirerCount(ctx, userID); err == nil && hit {
		return count, nil
	}

	count, err := repository.NewLikeRepository(s.appCtx.DB).CountAdmirers(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.SetAdmirerCount(ctx, userID, count)
	return count, nil
}
