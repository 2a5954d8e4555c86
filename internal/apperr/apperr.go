package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a domain error so the transport layer can map it to an
// HTTP status without inspecting message strings.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuthorization
	KindQuotaExceeded
	KindCooldownActive
	KindInsufficientCredits
	KindConflict
	KindInternal
)

// Error is the single error type the services return for business-rule
// violations. Optional fields carry the structured detail the client needs
// to render countdowns and balances.
type Error struct {
	Kind    Kind
	Message string

	// quota rejections
	LimitKind string // "on_grid", "off_grid", "messages"
	Limit     int
	ResetAt   time.Time

	// cooldown rejections
	Until time.Time

	// credit rejections
	Balance  int64
	Required int64
}

func (e *Error) Error() string { return e.Message }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func QuotaExceeded(limitKind string, limit int, resetAt time.Time) *Error {
	return &Error{
		Kind:      KindQuotaExceeded,
		Message:   fmt.Sprintf("daily %s limit reached", limitKind),
		LimitKind: limitKind,
		Limit:     limit,
		ResetAt:   resetAt,
	}
}

func CooldownActive(until time.Time) *Error {
	return &Error{
		Kind:    KindCooldownActive,
		Message: "user is in cooldown",
		Until:   until,
	}
}

func InsufficientCredits(balance, required int64) *Error {
	return &Error{
		Kind:     KindInsufficientCredits,
		Message:  "insufficient credits",
		Balance:  balance,
		Required: required,
	}
}

// As unwraps err into *Error if it is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
