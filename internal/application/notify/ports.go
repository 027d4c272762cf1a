package notify

import (
	"context"

	"github.com/shelfshare/shelfshare/internal/domain"
)

/*
Repo
----
Persistence port for notifications. MarkAllRead is a single bulk update,
not a read-then-write loop.
*/
type Repo interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	GetByID(ctx context.Context, id string) (domain.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

/*
Pusher
------
Live delivery to connected clients (WebSocket hub). Push failures and
offline users are non-events; the row is already persisted.
*/
type Pusher interface {
	Push(userID string, n domain.Notification)
}

/*
EventPublisher
--------------
Optional broker fan-out so other services can observe lending activity.
Best-effort, same as the push.
*/
type EventPublisher interface {
	PublishNotification(ctx context.Context, n domain.Notification) error
}
