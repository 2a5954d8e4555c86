package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/service/account"
)

type AuthHandler struct {
	accounts *account.Service
}

func NewAuthHandler(accounts *account.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email        string   `json:"email" binding:"required,email"`
		Password     string   `json:"password" binding:"required,min=8"`
		Name         string   `json:"name" binding:"required"`
		Gender       string   `json:"gender" binding:"required"`
		InterestedIn string   `json:"interested_in" binding:"required"`
		DateOfBirth  string   `json:"date_of_birth" binding:"required"`
		City         string   `json:"city"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
		Phone        string   `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		respondError(c, apperr.Validation("date_of_birth must be YYYY-MM-DD"))
		return
	}

	user, token, err := h.accounts.Signup(c.Request.Context(), account.SignupRequest{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Gender:       req.Gender,
		InterestedIn: req.InterestedIn,
		DateOfBirth:  dob,
		City:         req.City,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Phone:        req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":        user.ID,
		"token":          token,
		"credit_balance": user.CreditBalance,
	})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":        user.ID,
		"token":          token,
		"is_premium":     user.IsPremium,
		"is_verified":    user.IsVerified,
		"credit_balance": user.CreditBalance,
	})
}

// POST /api/v1/auth/otp/request
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	if err := h.accounts.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent"})
}

// POST /api/v1/auth/otp/verify
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	if err := h.accounts.VerifyOTP(c.Request.Context(), currentUserID(c), req.Phone, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_verified": true})
}
