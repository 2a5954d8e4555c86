package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/service/account"
	"github.com/kindling-app/kindling/internal/service/credits"
)

type AdminHandler struct {
	accounts *account.Service
	credits  *credits.Service
}

func NewAdminHandler(accounts *account.Service, creditSvc *credits.Service) *AdminHandler {
	return &AdminHandler{accounts: accounts, credits: creditSvc}
}

// POST /api/v1/admin/users/:id/ban
func (h *AdminHandler) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

// POST /api/v1/admin/users/:id/unban
func (h *AdminHandler) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c *gin.Context, banned bool) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.Validation("invalid user id"))
		return
	}
	if err := h.accounts.SetBanned(c.Request.Context(), userID, banned); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_banned": banned})
}

// POST /api/v1/admin/users/:id/credits
func (h *AdminHandler) GrantCredits(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.Validation("invalid user id"))
		return
	}
	var req struct {
		Amount int64  `json:"amount" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	if req.Reason == "" {
		req.Reason = "admin_grant"
	}
	balance, err := h.credits.Grant(c.Request.Context(), userID, req.Amount, req.Reason,
		map[string]any{"granted_by": currentUserID(c)})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "credit_balance": balance})
}
