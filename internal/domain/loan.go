package domain

import "time"

// Loan is one borrow of one book by one user. A loan is open until the
// borrower returns it and the owner approves the return; rows are never
// hard-deleted.
type Loan struct {
	ID               string
	BookID           string
	UserID           string
	Returned         bool
	ReturnedApproved bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (l Loan) Open() bool { return !l.Returned }

func (l Loan) PendingApproval() bool { return l.Returned && !l.ReturnedApproved }
