package postgres

import (
	"context"
	"database/sql"

	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/domain"
)

// LoanRepo persists loans. The loans_one_active_per_book partial unique
// index is the last line of defence against concurrent borrows; the service
// guards run first and give the precise error, the index catches the race.
type LoanRepo struct {
	db *sql.DB
}

func NewLoanRepo(db *sql.DB) *LoanRepo {
	return &LoanRepo{db: db}
}

const loanColumns = `id, book_id, user_id, returned, returned_approved, created_at, updated_at`

func scanLoan(sc interface{ Scan(...any) error }) (domain.Loan, error) {
	var l domain.Loan
	err := sc.Scan(
		&l.ID, &l.BookID, &l.UserID, &l.Returned, &l.ReturnedApproved, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *LoanRepo) Create(ctx context.Context, l domain.Loan) (domain.Loan, error) {
	const q = `
INSERT INTO loans (id, book_id, user_id)
VALUES ($1,$2,$3)
RETURNING created_at, updated_at;
`
	err := r.db.QueryRowContext(ctx, q, l.ID, l.BookID, l.UserID).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "loans_one_active_per_book") {
			return domain.Loan{}, domain.ErrBorrowedByOther()
		}
		return domain.Loan{}, domain.ErrDBUnavailable(err)
	}
	return l, nil
}

func (r *LoanRepo) ActiveByBookAndUser(ctx context.Context, bookID, userID string) (domain.Loan, bool, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE book_id = $1 AND user_id = $2 AND returned_approved = FALSE
LIMIT 1;`
	l, err := scanLoan(r.db.QueryRowContext(ctx, q, bookID, userID))
	if err != nil {
		if isNoRows(err) {
			return domain.Loan{}, false, nil
		}
		return domain.Loan{}, false, domain.ErrDBUnavailable(err)
	}
	return l, true, nil
}

func (r *LoanRepo) HasActiveForBook(ctx context.Context, bookID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM loans WHERE book_id = $1 AND returned_approved = FALSE);`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, bookID).Scan(&exists); err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	return exists, nil
}

func (r *LoanRepo) PendingReturnByBook(ctx context.Context, bookID string) (domain.Loan, bool, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE book_id = $1 AND returned = TRUE AND returned_approved = FALSE
LIMIT 1;`
	l, err := scanLoan(r.db.QueryRowContext(ctx, q, bookID))
	if err != nil {
		if isNoRows(err) {
			return domain.Loan{}, false, nil
		}
		return domain.Loan{}, false, domain.ErrDBUnavailable(err)
	}
	return l, true, nil
}

func (r *LoanRepo) MarkReturned(ctx context.Context, loanID string) error {
	const q = `
UPDATE loans
SET returned = TRUE, updated_at = NOW()
WHERE id = $1 AND returned = FALSE;
`
	res, err := r.db.ExecContext(ctx, q, loanID)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotBorrowed()
	}
	return nil
}

func (r *LoanRepo) ApproveReturn(ctx context.Context, loanID string) error {
	const q = `
UPDATE loans
SET returned_approved = TRUE, updated_at = NOW()
WHERE id = $1 AND returned = TRUE AND returned_approved = FALSE;
`
	res, err := r.db.ExecContext(ctx, q, loanID)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReturnNotPending()
	}
	return nil
}

func (r *LoanRepo) ListByBorrower(ctx context.Context, userID string, p catalog.Page) ([]catalog.LoanRecord, int, error) {
	const countQ = `SELECT COUNT(1) FROM loans WHERE user_id = $1;`
	listQ := `
SELECT ` + prefixed("l", loanColumns) + `, ` + prefixed("b", bookColumns) + `
FROM loans l
JOIN books b ON b.id = l.book_id
WHERE l.user_id = $1
ORDER BY l.created_at DESC
LIMIT $2 OFFSET $3;`
	return r.listRecords(ctx, listQ, countQ, userID, p)
}

// ListReturnedByOwner lists returned loans on the owner's books, pending
// approval first, then most recent.
func (r *LoanRepo) ListReturnedByOwner(ctx context.Context, ownerID string, p catalog.Page) ([]catalog.LoanRecord, int, error) {
	const countQ = `
SELECT COUNT(1) FROM loans l
JOIN books b ON b.id = l.book_id
WHERE b.owner_id = $1 AND l.returned = TRUE;`
	listQ := `
SELECT ` + prefixed("l", loanColumns) + `, ` + prefixed("b", bookColumns) + `
FROM loans l
JOIN books b ON b.id = l.book_id
WHERE b.owner_id = $1 AND l.returned = TRUE
ORDER BY l.returned_approved ASC, l.updated_at DESC
LIMIT $2 OFFSET $3;`
	return r.listRecords(ctx, listQ, countQ, ownerID, p)
}

func (r *LoanRepo) listRecords(ctx context.Context, listQ, countQ, arg string, p catalog.Page) ([]catalog.LoanRecord, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, arg).Scan(&total); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}

	rows, err := r.db.QueryContext(ctx, listQ, arg, p.Size, p.Offset())
	if err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var recs []catalog.LoanRecord
	for rows.Next() {
		var (
			l  domain.Loan
			br bookRow
		)
		err := rows.Scan(
			&l.ID, &l.BookID, &l.UserID, &l.Returned, &l.ReturnedApproved, &l.CreatedAt, &l.UpdatedAt,
			&br.ID, &br.Title, &br.Author, &br.ISBN, &br.Synopsis,
			&br.Cover, &br.Archived, &br.Shareable, &br.OwnerID, &br.CreatedAt,
		)
		if err != nil {
			return nil, 0, domain.ErrDBUnavailable(err)
		}
		recs = append(recs, catalog.LoanRecord{Loan: l, Book: br.toDomain()})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	return recs, total, nil
}
