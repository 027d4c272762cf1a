package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// Borrow opens a loan for the caller. Guard order is deliberate so the
// caller gets the most specific failure:
//
//  1. book must exist
//  2. book must be in circulation (not archived, shareable)
//  3. caller must not be the owner
//  4. caller must not already hold an active loan on this book
//  5. nobody else may hold an active loan on this book
//
// Storage still enforces one active loan per book, so a concurrent borrow
// that slips past the checks surfaces as borrowed-by-other.
func (s *Service) Borrow(ctx context.Context, bookID, userID string) (domain.Loan, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return domain.Loan{}, err
	}
	if !b.Borrowable() {
		return domain.Loan{}, domain.ErrBookNotBorrowable()
	}
	if b.OwnerID == userID {
		return domain.Loan{}, domain.ErrOwnBook("borrow")
	}

	_, mine, err := s.loans.ActiveByBookAndUser(ctx, bookID, userID)
	if err != nil {
		return domain.Loan{}, err
	}
	if mine {
		return domain.Loan{}, domain.ErrAlreadyBorrowed()
	}

	taken, err := s.loans.HasActiveForBook(ctx, bookID)
	if err != nil {
		return domain.Loan{}, err
	}
	if taken {
		return domain.Loan{}, domain.ErrBorrowedByOther()
	}

	loan, err := s.loans.Create(ctx, domain.Loan{
		ID:     uuid.NewString(),
		BookID: bookID,
		UserID: userID,
	})
	if err != nil {
		return domain.Loan{}, err
	}

	s.notify(ctx, b.OwnerID, domain.StatusBorrowed, "Your book has been borrowed", b.Title)
	return loan, nil
}

// Return marks the caller's open loan as returned, pending owner approval.
func (s *Service) Return(ctx context.Context, bookID, userID string) (domain.Loan, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return domain.Loan{}, err
	}
	if !b.Borrowable() {
		return domain.Loan{}, domain.ErrBookNotBorrowable()
	}
	if b.OwnerID == userID {
		return domain.Loan{}, domain.ErrOwnBook("return")
	}

	loan, ok, err := s.loans.ActiveByBookAndUser(ctx, bookID, userID)
	if err != nil {
		return domain.Loan{}, err
	}
	if !ok || loan.Returned {
		return domain.Loan{}, domain.ErrNotBorrowed()
	}

	if err := s.loans.MarkReturned(ctx, loan.ID); err != nil {
		return domain.Loan{}, err
	}
	loan.Returned = true

	s.notify(ctx, b.OwnerID, domain.StatusReturned, "Your book has been returned", b.Title)
	return loan, nil
}

// ApproveReturn closes a pending return. Owner only.
func (s *Service) ApproveReturn(ctx context.Context, bookID, callerID string) (domain.Loan, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return domain.Loan{}, err
	}
	if !b.Borrowable() {
		return domain.Loan{}, domain.ErrBookNotBorrowable()
	}
	if b.OwnerID != callerID {
		return domain.Loan{}, domain.ErrNotBookOwner("approve return")
	}

	loan, ok, err := s.loans.PendingReturnByBook(ctx, bookID)
	if err != nil {
		return domain.Loan{}, err
	}
	if !ok {
		return domain.Loan{}, domain.ErrReturnNotPending()
	}

	if err := s.loans.ApproveReturn(ctx, loan.ID); err != nil {
		return domain.Loan{}, err
	}
	loan.ReturnedApproved = true

	s.notify(ctx, loan.UserID, domain.StatusReturnApproved, "Your book return has been approved", b.Title)
	return loan, nil
}

// BorrowedView is a loan listing entry with its book's rating.
type BorrowedView struct {
	Book domain.Book
	Loan domain.Loan
	Rate float64
}

// ListBorrowed lists the caller's loans, open and closed.
func (s *Service) ListBorrowed(ctx context.Context, userID string, p Page) (Paged[BorrowedView], error) {
	p = p.Normalize()
	recs, total, err := s.loans.ListByBorrower(ctx, userID, p)
	if err != nil {
		return Paged[BorrowedView]{}, err
	}
	return s.loanViews(ctx, recs, p, total)
}

// ListReturned lists returns pending or past on the caller's own books.
func (s *Service) ListReturned(ctx context.Context, ownerID string, p Page) (Paged[BorrowedView], error) {
	p = p.Normalize()
	recs, total, err := s.loans.ListReturnedByOwner(ctx, ownerID, p)
	if err != nil {
		return Paged[BorrowedView]{}, err
	}
	return s.loanViews(ctx, recs, p, total)
}

func (s *Service) loanViews(ctx context.Context, recs []LoanRecord, p Page, total int) (Paged[BorrowedView], error) {
	views := make([]BorrowedView, 0, len(recs))
	for _, r := range recs {
		notes, err := s.feedbacks.NotesByBook(ctx, r.Book.ID)
		if err != nil {
			return Paged[BorrowedView]{}, err
		}
		views = append(views, BorrowedView{Book: r.Book, Loan: r.Loan, Rate: domain.Rate(notes)})
	}
	return newPaged(views, p, total), nil
}
