package notify

import (
	"context"
	"log/slog"
	"strings"
)

// SMSSender is a placeholder transport: it logs the intent and never fails.
// A real gateway would slot in behind the same method.
type SMSSender struct {
	log *slog.Logger
}

func NewSMSSender(log *slog.Logger) *SMSSender {
	return &SMSSender{log: log}
}

func (s *SMSSender) Send(ctx context.Context, phone, message string) {
	if s == nil || strings.TrimSpace(phone) == "" {
		return
	}
	s.log.Info("sms: would send",
		slog.String("phone", phone),
		slog.String("message", message),
	)
}
