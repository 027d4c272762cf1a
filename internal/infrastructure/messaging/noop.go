package messaging

import (
	"context"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// NoopPublisher satisfies notify.EventPublisher when no broker is
// configured (local development, tests).
type NoopPublisher struct{}

func (NoopPublisher) PublishNotification(context.Context, domain.Notification) error { return nil }
