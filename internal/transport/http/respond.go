package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/kindling-app/kindling/internal/apperr"
)

// respondError translates a service error into its HTTP status and
// structured body via the central mapper.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
}
