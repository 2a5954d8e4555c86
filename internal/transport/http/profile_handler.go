package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/service/account"
)

type ProfileHandler struct {
	accounts *account.Service
}

func NewProfileHandler(accounts *account.Service) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

// PUT /api/v1/profile
func (h *ProfileHandler) Complete(c *gin.Context) {
	var req struct {
		Bio              string   `json:"bio"`
		Interests        []string `json:"interests"`
		Traits           []string `json:"traits"`
		RelationshipGoal string   `json:"relationship_goal"`
		HeightCm         *int     `json:"height_cm"`
		Smoker           *bool    `json:"smoker"`
		Drinker          *bool    `json:"drinker"`
		QuizAnswers      []string `json:"quiz_answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	profile, err := h.accounts.CompleteProfile(c.Request.Context(), currentUserID(c), account.ProfileRequest{
		Bio:              req.Bio,
		Interests:        req.Interests,
		Traits:           req.Traits,
		RelationshipGoal: req.RelationshipGoal,
		HeightCm:         req.HeightCm,
		Smoker:           req.Smoker,
		Drinker:          req.Drinker,
		QuizAnswers:      req.QuizAnswers,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileJSON(profile))
}

// GET /api/v1/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.accounts.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileJSON(profile))
}

// PUT /api/v1/privacy
func (h *ProfileHandler) SetIncognito(c *gin.Context) {
	var req struct {
		Incognito bool `json:"incognito"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	if err := h.accounts.SetIncognito(c.Request.Context(), currentUserID(c), req.Incognito); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incognito": req.Incognito})
}

// POST /api/v1/boost
func (h *ProfileHandler) Boost(c *gin.Context) {
	expiresAt, err := h.accounts.Boost(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boost_expires_at": expiresAt})
}

func profileJSON(p *db.PersonaProfile) gin.H {
	return gin.H{
		"user_id":             p.UserID,
		"bio":                 p.Bio,
		"interests":           p.InterestList(),
		"traits":              p.TraitList(),
		"relationship_goal":   p.RelationshipGoal,
		"height_cm":           p.HeightCm,
		"smoker":              p.Smoker,
		"drinker":             p.Drinker,
		"personality_summary": p.PersonalitySummary,
	}
}
