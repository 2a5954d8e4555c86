// Package account owns signup, login, phone verification, profile
// completion, wallet purchases, boost and privacy settings.
package account

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/auth"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/repository"
	"github.com/kindling-app/kindling/internal/service/credits"
	"github.com/kindling-app/kindling/internal/sms"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignupRequest is the minimal account creation payload.
type SignupRequest struct {
	Email        string
	Password     string
	Name         string
	Gender       string
	InterestedIn string
	DateOfBirth  time.Time
	City         string
	Latitude     *float64
	Longitude    *float64
	Phone        string
}

// ProfileRequest is the profile-completion payload.
type ProfileRequest struct {
	Bio              string
	Interests        []string
	Traits           []string
	RelationshipGoal string
	HeightCm         *int
	Smoker           *bool
	Drinker          *bool
	QuizAnswers      []string
}

// Service implements the account subsystem.
type Service struct {
	appCtx  *app.AppContext
	cfg     *config.Config
	credits *credits.Service
	sms     sms.Sender
}

func NewService(appCtx *app.AppContext, cfg *config.Config, creditSvc *credits.Service, sender sms.Sender) *Service {
	return &Service{appCtx: appCtx, cfg: cfg, credits: creditSvc, sms: sender}
}

// Signup creates the account, its lazy companion rows and the starter
// credit grant. Cooldown defaults by gender.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*db.User, string, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, "", apperr.Validation("email, password and name are required")
	}
	switch req.Gender {
	case "male", "female":
	default:
		return nil, "", apperr.Validation("gender must be male or female")
	}
	switch req.InterestedIn {
	case "male", "female", "both":
	default:
		return nil, "", apperr.Validation("interested_in must be male, female or both")
	}
	if req.DateOfBirth.IsZero() || req.DateOfBirth.After(time.Now().AddDate(-18, 0, 0)) {
		return nil, "", apperr.Validation("must be at least 18 years old")
	}

	users := repository.NewUserRepository(s.appCtx.DB)
	if _, err := users.FindByEmail(ctx, req.Email); err == nil {
		return nil, "", apperr.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &db.User{
		Email:           req.Email,
		PasswordHash:    string(hash),
		Name:            req.Name,
		Phone:           req.Phone,
		Gender:          req.Gender,
		InterestedIn:    req.InterestedIn,
		DateOfBirth:     req.DateOfBirth,
		City:            req.City,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		CooldownEnabled: req.Gender == "female",
		LastLoginAt:     time.Now().UTC(),
	}
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		return tx.Create(&db.ActivityLimits{UserID: user.ID, LastResetAt: time.Now().UTC()}).Error
	})
	if err != nil {
		return nil, "", err
	}

	if s.appCtx.Policy.SignupCredits > 0 {
		if _, err := s.credits.Grant(ctx, user.ID, s.appCtx.Policy.SignupCredits, "signup_bonus", nil); err != nil {
			s.appCtx.Logger.Error("signup credit grant failed", "user", user.ID, "err", err)
		} else {
			user.CreditBalance = s.appCtx.Policy.SignupCredits
		}
	}

	token, err := auth.Issue(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*db.User, string, error) {
	users := repository.NewUserRepository(s.appCtx.DB)
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", apperr.Authorization("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Authorization("invalid credentials")
	}
	if user.IsBanned {
		return nil, "", apperr.Authorization("account is banned")
	}
	_ = users.TouchLastLogin(ctx, user.ID, time.Now().UTC())

	token, err := auth.Issue(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RequestOTP stores a one-time code under the phone number and hands it to
// the SMS provider.
func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	if phone == "" {
		return apperr.Validation("phone is required")
	}
	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.appCtx.RedisCache.StoreOTP(ctx, phone, code); err != nil {
		return err
	}
	return s.sms.Send(ctx, phone, "Your Kindling verification code is "+code)
}

// VerifyOTP consumes the code and marks the account verified.
func (s *Service) VerifyOTP(ctx context.Context, userID uint64, phone, code string) error {
	if phone == "" || code == "" {
		return apperr.Validation("phone and code are required")
	}
	ok, err := s.appCtx.RedisCache.CheckOTP(ctx, phone, code)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("invalid or expired code")
	}
	return repository.NewUserRepository(s.appCtx.DB).SetVerified(ctx, userID)
}

// CompleteProfile upserts the persona profile and regenerates the persona
// embedding. Enrichment absence or failure just leaves the optional fields
// empty.
func (s *Service) CompleteProfile(ctx context.Context, userID uint64, req ProfileRequest) (*db.PersonaProfile, error) {
	if _, err := repository.NewUserRepository(s.appCtx.DB).FindByID(ctx, userID); err != nil {
		return nil, apperr.NotFound("user not found")
	}

	profile := &db.PersonaProfile{
		UserID:           userID,
		Bio:              req.Bio,
		Interests:        db.EncodeList(req.Interests),
		Traits:           db.EncodeList(req.Traits),
		RelationshipGoal: req.RelationshipGoal,
		HeightCm:         req.HeightCm,
		Smoker:           req.Smoker,
		Drinker:          req.Drinker,
	}

	if s.appCtx.Enricher.Available() {
		text := strings.Join(append(append([]string{req.Bio}, req.Interests...), req.Traits...), " ")
		if vec, err := s.appCtx.Enricher.Embed(ctx, text); err != nil {
			s.appCtx.Logger.Debug("embedding unavailable", "user", userID, "err", err)
		} else {
			profile.Embedding = db.EncodeVector(vec)
		}
		if len(req.QuizAnswers) > 0 {
			if summary, err := s.appCtx.Enricher.AnalyzePersonality(ctx, req.QuizAnswers); err == nil {
				profile.PersonalitySummary = summary
			}
		}
	}

	if err := repository.NewProfileRepository(s.appCtx.DB).Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Profile returns the user's persona profile.
func (s *Service) Profile(ctx context.Context, userID uint64) (*db.PersonaProfile, error) {
	profile, err := repository.NewProfileRepository(s.appCtx.DB).FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("profile not completed")
	}
	return profile, nil
}

// Purchase credits the wallet after an (out-of-scope) payment succeeded.
func (s *Service) Purchase(ctx context.Context, userID uint64, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, apperr.Validation("amount must be positive")
	}
	return s.credits.Grant(ctx, userID, amount, "purchase", map[string]any{"reference": reference})
}

// Boost debits the boost cost and stamps the visibility window.
func (s *Service) Boost(ctx context.Context, userID uint64) (time.Time, error) {
	if _, err := s.credits.Consume(ctx, userID, s.appCtx.Policy.BoostCost, "boost", nil); err != nil {
		return time.Time{}, err
	}
	expiresAt := time.Now().UTC().Add(s.appCtx.Policy.BoostDuration)
	if err := repository.NewUserRepository(s.appCtx.DB).SetBoost(ctx, userID, expiresAt); err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

// SetIncognito toggles search visibility.
func (s *Service) SetIncognito(ctx context.Context, userID uint64, incognito bool) error {
	return repository.NewUserRepository(s.appCtx.DB).SetIncognito(ctx, userID, incognito)
}

// SetBanned is the admin moderation switch.
func (s *Service) SetBanned(ctx context.Context, userID uint64, banned bool) error {
	users := repository.NewUserRepository(s.appCtx.DB)
	if _, err := users.FindByID(ctx, userID); err != nil {
		return apperr.NotFound("user not found")
	}
	return users.SetBanned(ctx, userID, banned)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
