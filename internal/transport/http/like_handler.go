package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/service/like"
)

type LikeHandler struct {
	likes *like.Service
}

func NewLikeHandler(likes *like.Service) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// POST /api/v1/likes
func (h *LikeHandler) Like(c *gin.Context) {
	var req struct {
		TargetUserID uint64 `json:"target_user_id" binding:"required"`
		IsOnGrid     bool   `json:"is_on_grid"`
		IsSuperlike  bool   `json:"is_superlike"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	result, err := h.likes.Like(c.Request.Context(), currentUserID(c), req.TargetUserID, req.IsOnGrid, req.IsSuperlike)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, likeResultJSON(result))
}

// POST /api/v1/likes/compliment
func (h *LikeHandler) Compliment(c *gin.Context) {
	var req struct {
		TargetUserID uint64 `json:"target_user_id" binding:"required"`
		Compliment   string `json:"compliment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	result, err := h.likes.Compliment(c.Request.Context(), currentUserID(c), req.TargetUserID, req.Compliment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, likeResultJSON(result))
}

// GET /api/v1/likes/admirers
func (h *LikeHandler) Admirers(c *gin.Context) {
	var token *string
	if t := c.Query("page_token"); t != "" {
		token = &t
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	admirers, next, err := h.likes.ListAdmirers(c.Request.Context(), currentUserID(c), token, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]gin.H, 0, len(admirers))
	for _, adm := range admirers {
		entry := gin.H{
			"user_id":      adm.LikerID,
			"is_superlike": adm.IsSuperlike,
			"liked_at":     adm.CreatedAt,
		}
		if adm.IsCompliment {
			entry["compliment"] = adm.Compliment
		}
		items = append(items, entry)
	}
	body := gin.H{"admirers": items}
	if next != nil {
		body["next_page_token"] = *next
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/v1/likes/admirers/count
func (h *LikeHandler) AdmirerCount(c *gin.Context) {
	count, err := h.likes.CountAdmirers(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GET /api/v1/matches
func (h *LikeHandler) Matches(c *gin.Context) {
	userID := currentUserID(c)
	matches, err := h.likes.ListMatches(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]gin.H, 0, len(matches))
	for i := range matches {
		entry := gin.H{
			"match_id":   matches[i].ID,
			"user_id":    matches[i].Other(userID),
			"matched_at": matches[i].MatchedAt,
		}
		if matches[i].LastMessageAt != nil {
			entry["last_message_at"] = *matches[i].LastMessageAt
		}
		items = append(items, entry)
	}
	c.JSON(http.StatusOK, gin.H{"matches": items})
}

// DELETE /api/v1/matches/:id
func (h *LikeHandler) Unmatch(c *gin.Context) {
	matchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.Validation("invalid match id"))
		return
	}
	if err := h.likes.Unmatch(c.Request.Context(), currentUserID(c), matchID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unmatched": true})
}

// POST /api/v1/blocks
func (h *LikeHandler) Block(c *gin.Context) {
	var req struct {
		TargetUserID uint64 `json:"target_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	if err := h.likes.Block(c.Request.Context(), currentUserID(c), req.TargetUserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": true})
}

func likeResultJSON(result *like.Result) gin.H {
	body := gin.H{
		"is_match": result.IsMatch,
		"likes_remaining": gin.H{
			"on_grid":  result.RemainingOnGrid,
			"off_grid": result.RemainingOffGrid,
		},
	}
	if result.MatchID != nil {
		body["match_id"] = *result.MatchID
	}
	if result.CooldownUntil != nil {
		body["cooldown_until"] = *result.CooldownUntil
	}
	return body
}
