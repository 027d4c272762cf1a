package catalog

import (
	"context"

	"github.com/shelfshare/shelfshare/internal/domain"
)

/*
BookRepo
--------
Persistence port for books. Listing queries do the visibility filtering in
storage (shareable, not archived, not owned by the viewer).
*/
type BookRepo interface {
	GetByID(ctx context.Context, id string) (domain.Book, error)
	Create(ctx context.Context, b domain.Book) (domain.Book, error)
	Update(ctx context.Context, b domain.Book) error
	SetCover(ctx context.Context, bookID, handle string) error

	ListDisplayable(ctx context.Context, viewerID string, p Page) ([]domain.Book, int, error)
	ListByOwner(ctx context.Context, ownerID string, p Page) ([]domain.Book, int, error)
}

/*
LoanRepo
--------
A loan is "active" until the owner approves its return. Active loans are what
the lending guards care about; fully closed history stays queryable for the
returned listings.

Create must enforce at most one active loan per book in storage (partial
unique index) and map the violation to the borrowed-by-other error, so two
concurrent borrows cannot both pass the service-level guards.
*/
type LoanRepo interface {
	Create(ctx context.Context, l domain.Loan) (domain.Loan, error)
	ActiveByBookAndUser(ctx context.Context, bookID, userID string) (domain.Loan, bool, error)
	HasActiveForBook(ctx context.Context, bookID string) (bool, error)
	PendingReturnByBook(ctx context.Context, bookID string) (domain.Loan, bool, error)
	MarkReturned(ctx context.Context, loanID string) error
	ApproveReturn(ctx context.Context, loanID string) error

	ListByBorrower(ctx context.Context, userID string, p Page) ([]LoanRecord, int, error)
	ListReturnedByOwner(ctx context.Context, ownerID string, p Page) ([]LoanRecord, int, error)
}

// LoanRecord is a loan joined with its book, the shape the listings need.
type LoanRecord struct {
	Loan domain.Loan
	Book domain.Book
}

type ReservationRepo interface {
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	FindByBookAndUser(ctx context.Context, bookID, userID string) (domain.Reservation, bool, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, p Page) ([]ReservationRecord, int, error)
}

type ReservationRecord struct {
	Reservation domain.Reservation
	Book        domain.Book
}

type FeedbackRepo interface {
	Create(ctx context.Context, f domain.Feedback) (domain.Feedback, error)
	ListByBook(ctx context.Context, bookID string, p Page) ([]domain.Feedback, int, error)
	NotesByBook(ctx context.Context, bookID string) ([]float64, error)
}

/*
Users
-----
Read-only lookup for display names in notifications and feedback views.
*/
type Users interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

/*
CoverStore
----------
Blob storage for cover images. Read returns (nil, "") without error for
books that have no cover.
*/
type CoverStore interface {
	Save(ctx context.Context, bookID string, data []byte, contentType string) (handle string, err error)
	Read(ctx context.Context, handle string) (data []byte, contentType string, err error)
}

/*
Notifier
--------
Fire-and-forget dispatch of lending events to the counterparty. Failures are
logged by the caller, never surfaced; a lost notification must not roll back
a state transition.
*/
type Notifier interface {
	Send(ctx context.Context, userID string, status domain.NotificationStatus, message, bookTitle string) error
}
