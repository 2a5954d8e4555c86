package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/service/match"
)

type SearchHandler struct {
	matches *match.Service
}

func NewSearchHandler(matches *match.Service) *SearchHandler {
	return &SearchHandler{matches: matches}
}

// POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req struct {
		SearchQuery   string        `json:"search_query"`
		Filters       match.Filters `json:"filters"`
		ExcludeIDs    []uint64      `json:"exclude_ids"`
		IsOnGrid      *bool         `json:"is_on_grid"`
		Limit         *int          `json:"limit"`
		ChargeCredits bool          `json:"charge_credits"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("%s", err.Error()))
		return
	}

	result, err := h.matches.Search(c.Request.Context(), currentUserID(c), match.Request{
		Query:         req.SearchQuery,
		Filters:       req.Filters,
		ExcludeIDs:    req.ExcludeIDs,
		IsOnGrid:      req.IsOnGrid,
		Limit:         req.Limit,
		ChargeCredits: req.ChargeCredits,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, searchJSON(result))
}

// POST /api/v1/search/offgrid-refresh
func (h *SearchHandler) OffGridRefresh(c *gin.Context) {
	result, err := h.matches.OffGridRefresh(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, searchJSON(result))
}

func searchJSON(result *match.Result) gin.H {
	body := gin.H{
		"on_grid":  candidatesJSON(result.OnGrid),
		"off_grid": candidatesJSON(result.OffGrid),
	}
	if result.CreditBalance != nil {
		body["credit_balance"] = *result.CreditBalance
	}
	return body
}

func candidatesJSON(items []match.Candidate) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, cand := range items {
		entry := gin.H{
			"user_id":          cand.UserID,
			"name":             cand.Name,
			"age":              cand.Age,
			"city":             cand.City,
			"match_percentage": cand.MatchPercentage,
			"boosted":          cand.Boosted,
		}
		if cand.DistanceKm != nil {
			entry["distance_km"] = *cand.DistanceKm
		}
		if cand.MatchReason != "" {
			entry["match_reason"] = cand.MatchReason
		}
		if len(cand.Highlights) > 0 {
			entry["match_highlights"] = cand.Highlights
		}
		if len(cand.Openers) > 0 {
			entry["suggested_openers"] = cand.Openers
		}
		out = append(out, entry)
	}
	return out
}
