package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type Service struct {
	repo   Repo
	pusher Pusher
	pub    EventPublisher
}

func NewService(repo Repo, pusher Pusher, pub EventPublisher) *Service {
	return &Service{repo: repo, pusher: pusher, pub: pub}
}

// Send persists the notification, then pushes it to the recipient's live
// connections and the broker. Only the persist can fail the call; delivery
// is best-effort on top of the stored row.
func (s *Service) Send(ctx context.Context, userID string, status domain.NotificationStatus, message, bookTitle string) error {
	n, err := s.repo.Create(ctx, domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    status,
		Message:   message,
		BookTitle: bookTitle,
	})
	if err != nil {
		return err
	}

	s.pusher.Push(userID, n)

	if err := s.pub.PublishNotification(ctx, n); err != nil {
		log.Warn().Err(err).Str("notification_id", n.ID).Msg("broker publish failed")
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly)
}

// MarkRead flips one notification. Only the recipient may do it.
func (s *Service) MarkRead(ctx context.Context, id, callerID string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != callerID {
		return domain.ErrNotNotificationOwner()
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}
