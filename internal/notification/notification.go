package notification

import (
	"context"
	"log/slog"

	"github.com/congo-pay/txengine/internal/ledger"
)

const (
	// KindAccountLocked is emitted for every account frozen by a chargeback.
	KindAccountLocked = "account_locked"
)

// Message describes a notification payload.
type Message struct {
	Kind    string
	RunID   string
	Account ledger.Account
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"run_id", message.RunID,
		"client", message.Account.Client,
		"available", message.Account.Available.String(),
		"held", message.Account.Held.String(),
	)
	return nil
}
