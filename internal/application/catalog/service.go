package catalog

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type Service struct {
	books        BookRepo
	loans        LoanRepo
	reservations ReservationRepo
	feedbacks    FeedbackRepo
	users        Users
	covers       CoverStore
	notifier     Notifier
}

func NewService(
	books BookRepo,
	loans LoanRepo,
	reservations ReservationRepo,
	feedbacks FeedbackRepo,
	users Users,
	covers CoverStore,
	notifier Notifier,
) *Service {
	return &Service{
		books:        books,
		loans:        loans,
		reservations: reservations,
		feedbacks:    feedbacks,
		users:        users,
		covers:       covers,
		notifier:     notifier,
	}
}

// Page is a 0-based page request. Size is clamped to keep list queries
// bounded.
type Page struct {
	Number int
	Size   int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

func (p Page) Offset() int { return p.Number * p.Size }

// Paged wraps a page of items with the usual pagination metadata.
type Paged[T any] struct {
	Items         []T
	Number        int
	Size          int
	TotalElements int
	TotalPages    int
	First         bool
	Last          bool
}

func newPaged[T any](items []T, p Page, total int) Paged[T] {
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Paged[T]{
		Items:         items,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    pages,
		First:         p.Number == 0,
		Last:          p.Number >= pages-1,
	}
}

// notify is fire-and-forget: a failed dispatch is logged, never propagated.
func (s *Service) notify(ctx context.Context, userID string, status domain.NotificationStatus, message, bookTitle string) {
	if err := s.notifier.Send(ctx, userID, status, message, bookTitle); err != nil {
		log.Warn().Err(err).
			Str("user_id", userID).
			Str("status", string(status)).
			Msg("notification dispatch failed")
	}
}
