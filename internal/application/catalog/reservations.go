package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// Reserve places a claim on a borrowed book. Reservations only make sense
// while someone else holds the book: a free book should just be borrowed,
// so reserving one fails with book-available.
func (s *Service) Reserve(ctx context.Context, bookID, userID string) (domain.Reservation, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if b.Archived {
		return domain.Reservation{}, domain.ErrBookArchived()
	}
	if b.OwnerID == userID {
		return domain.Reservation{}, domain.ErrOwnBook("reserve")
	}

	if _, exists, err := s.reservations.FindByBookAndUser(ctx, bookID, userID); err != nil {
		return domain.Reservation{}, err
	} else if exists {
		return domain.Reservation{}, domain.ErrAlreadyReserved()
	}

	// the current holder has no reason to reserve what they already have
	if _, mine, err := s.loans.ActiveByBookAndUser(ctx, bookID, userID); err != nil {
		return domain.Reservation{}, err
	} else if mine {
		return domain.Reservation{}, domain.ErrAlreadyBorrowed()
	}

	taken, err := s.loans.HasActiveForBook(ctx, bookID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !taken {
		return domain.Reservation{}, domain.ErrBookAvailable()
	}

	r, err := s.reservations.Create(ctx, domain.Reservation{
		ID:     uuid.NewString(),
		BookID: bookID,
		UserID: userID,
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	name := s.displayName(ctx, userID)
	s.notify(ctx, b.OwnerID, domain.StatusReserved, name+" has reserved your book", b.Title)
	return r, nil
}

// CancelReservation removes the caller's reservation on a book.
func (s *Service) CancelReservation(ctx context.Context, bookID, userID string) error {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return err
	}

	r, exists, err := s.reservations.FindByBookAndUser(ctx, bookID, userID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrReservationNotFound()
	}

	if err := s.reservations.Delete(ctx, r.ID); err != nil {
		return err
	}

	name := s.displayName(ctx, userID)
	s.notify(ctx, b.OwnerID, domain.StatusCancelled, name+" has cancelled their reservation", b.Title)
	return nil
}

// ReservationView is a reservation listing entry with its book's rating.
type ReservationView struct {
	Reservation domain.Reservation
	Book        domain.Book
	Rate        float64
}

func (s *Service) ListReservations(ctx context.Context, userID string, p Page) (Paged[ReservationView], error) {
	p = p.Normalize()
	recs, total, err := s.reservations.ListByUser(ctx, userID, p)
	if err != nil {
		return Paged[ReservationView]{}, err
	}
	views := make([]ReservationView, 0, len(recs))
	for _, r := range recs {
		notes, err := s.feedbacks.NotesByBook(ctx, r.Book.ID)
		if err != nil {
			return Paged[ReservationView]{}, err
		}
		views = append(views, ReservationView{Reservation: r.Reservation, Book: r.Book, Rate: domain.Rate(notes)})
	}
	return newPaged(views, p, total), nil
}

func (s *Service) displayName(ctx context.Context, userID string) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "Someone"
	}
	return u.FullName()
}
