package ports

import (
	"context"

	"github.com/enersync/utility_sync_app/internal/core/entity"
)

// EntityHost owns entity publication toward the hosting framework. New
// entities are published in batches only after their first successful
// refresh; existing entities republish state in place.
type EntityHost interface {
	// PublishEntities registers a batch of newly created entities.
	PublishEntities(ctx context.Context, entities []entity.Entity) error
	// PublishState pushes the current snapshot of an already registered
	// entity.
	PublishState(ctx context.Context, e entity.Entity) error
	// RemoveEntity retires a registered entity by its unique id.
	RemoveEntity(ctx context.Context, uniqueID string) error
}

// Notification is one user-visible message dispatched by an operation.
type Notification struct {
	NotificationID string `json:"notificationID"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

// Notifier dispatches user notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, n Notification) error
}

// EventBus publishes structured operation-result events.
type EventBus interface {
	Fire(ctx context.Context, eventType string, data map[string]any)
}
