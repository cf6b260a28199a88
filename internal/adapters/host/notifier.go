package host

import (
	"context"
	"log/slog"
	"sync"

	"github.com/enersync/utility_sync_app/internal/core/ports"
)

// LogNotifier records notifications with replace-by-id semantics and mirrors
// them to the log. Re-sending a notification id overwrites the previous one.
type LogNotifier struct {
	logger *slog.Logger

	mu     sync.RWMutex
	active map[string]ports.Notification
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger,
		active: make(map[string]ports.Notification),
	}
}

func (n *LogNotifier) CreateNotification(ctx context.Context, notification ports.Notification) error {
	n.mu.Lock()
	n.active[notification.NotificationID] = notification
	n.mu.Unlock()

	n.logger.Info("notification",
		slog.String("notification_id", notification.NotificationID),
		slog.String("title", notification.Title),
		slog.String("message", notification.Message),
	)
	return nil
}

// Active returns the currently held notifications keyed by id.
func (n *LogNotifier) Active() map[string]ports.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]ports.Notification, len(n.active))
	for id, notification := range n.active {
		out[id] = notification
	}
	return out
}

var _ ports.Notifier = (*LogNotifier)(nil)
