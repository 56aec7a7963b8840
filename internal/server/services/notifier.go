package services

import (
	"context"

	"github.com/swaphubteam/SwapIt/internal/logging"
)

// ResetNotifier delivers password reset links.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogNotifier writes reset links to the log instead of mailing them. The
// link itself is logged at debug level only.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "reset-notifier")}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, link string) error {
	n.logger.Info(ctx, "password reset requested", "email", email)
	n.logger.Debug(ctx, "password reset link", "email", email, "link", link)
	return nil
}
