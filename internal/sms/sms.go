// Package sms abstracts the OTP delivery provider.
package sms

import (
	"context"
	"log/slog"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
}

// LogSender writes the message to the log instead of a carrier. Used in
// development and tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, phone, body string) error {
	s.Logger.Info("sms", "phone", phone, "body", body)
	return nil
}
