package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/service/message"
)

type MessageHandler struct {
	messages *message.Service
}

func NewMessageHandler(messages *message.Service) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// POST /api/v1/matches/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	matchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.Validation("invalid match id"))
		return
	}
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), currentUserID(c), matchID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message_id": msg.ID,
		"match_id":   msg.MatchID,
		"sent_at":    msg.CreatedAt,
	})
}

// GET /api/v1/matches/:id/messages
func (h *MessageHandler) List(c *gin.Context) {
	matchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.Validation("invalid match id"))
		return
	}
	beforeID, _ := strconv.ParseUint(c.Query("before_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.messages.List(c.Request.Context(), currentUserID(c), matchID, beforeID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]gin.H, 0, len(msgs))
	for i := range msgs {
		items = append(items, gin.H{
			"message_id": msgs[i].ID,
			"sender_id":  msgs[i].SenderID,
			"body":       msgs[i].Body,
			"sent_at":    msgs[i].CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": items})
}
