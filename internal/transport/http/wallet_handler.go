package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/service/account"
	"github.com/kindling-app/kindling/internal/service/credits"
)

type WalletHandler struct {
	credits  *credits.Service
	accounts *account.Service
}

func NewWalletHandler(creditSvc *credits.Service, accounts *account.Service) *WalletHandler {
	return &WalletHandler{credits: creditSvc, accounts: accounts}
}

// GET /api/v1/wallet
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.credits.Balance(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credit_balance": balance})
}

// GET /api/v1/wallet/history
func (h *WalletHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.credits.History(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]gin.H, 0, len(rows))
	for i := range rows {
		items = append(items, gin.H{
			"amount":     rows[i].Amount,
			"direction":  rows[i].Direction,
			"reason":     rows[i].Reason,
			"reference":  rows[i].Reference,
			"created_at": rows[i].CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

// POST /api/v1/wallet/purchase
func (h *WalletHandler) Purchase(c *gin.Context) {
	var req struct {
		Amount    int64  `json:"amount" binding:"required"`
		Reference string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	balance, err := h.accounts.Purchase(c.Request.Context(), currentUserID(c), req.Amount, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credit_balance": balance})
}
