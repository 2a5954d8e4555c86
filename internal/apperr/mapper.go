// internal/apperr/mapper.go
package apperr

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// HTTPStatus converts repo/service errors into HTTP status codes.
// Keeps the handlers clean by centralizing error mapping.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch KindOf(err) {
	case KindValidation, KindConflict, KindCooldownActive, KindAuthorization:
		// cooldown and blocked-relationship rejections are business-rule
		// rejections on the wire, not auth failures
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindInsufficientCredits:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Payload builds the structured JSON body for a rejection so clients can
// render the limit and reset horizon.
func Payload(err error) map[string]any {
	body := map[string]any{"error": err.Error()}
	e, ok := As(err)
	if !ok {
		return body
	}
	switch e.Kind {
	case KindQuotaExceeded:
		body["limit_kind"] = e.LimitKind
		body["limit"] = e.Limit
		body["reset_at"] = e.ResetAt
	case KindCooldownActive:
		body["cooldown_until"] = e.Until
	case KindInsufficientCredits:
		body["credit_balance"] = e.Balance
		body["required"] = e.Required
	}
	return body
}
