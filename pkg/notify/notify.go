// Package notify defines the notification collaborator called after a bridge
// transaction reaches a terminal state. Delivery transport lives outside the
// orchestrator; calls are fire-and-forget.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier is told about terminal transaction outcomes
type Notifier interface {
	NotifySuccess(ctx context.Context, transactionID string)
	NotifyFailure(ctx context.Context, transactionID string)
}

// LogNotifier records outcomes in the log. It stands in for the real
// notification service in local deployments.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifySuccess(_ context.Context, transactionID string) {
	n.logger.Info("Bridge transaction completed", zap.String("transaction_id", transactionID))
}

func (n *LogNotifier) NotifyFailure(_ context.Context, transactionID string) {
	n.logger.Info("Bridge transaction failed", zap.String("transaction_id", transactionID))
}
