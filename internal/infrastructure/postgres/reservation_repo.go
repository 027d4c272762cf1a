package postgres

import (
	"context"
	"database/sql"

	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/domain"
)

type ReservationRepo struct {
	db *sql.DB
}

func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
INSERT INTO reservations (id, book_id, user_id)
VALUES ($1,$2,$3)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q, res.ID, res.BookID, res.UserID).Scan(&res.CreatedAt)
	if err != nil {
		// (book_id, user_id) is unique
		if isUniqueViolation(err, "") {
			return domain.Reservation{}, domain.ErrAlreadyReserved()
		}
		return domain.Reservation{}, domain.ErrDBUnavailable(err)
	}
	return res, nil
}

func (r *ReservationRepo) FindByBookAndUser(ctx context.Context, bookID, userID string) (domain.Reservation, bool, error) {
	const q = `
SELECT id, book_id, user_id, created_at
FROM reservations
WHERE book_id = $1 AND user_id = $2
LIMIT 1;
`
	var res domain.Reservation
	err := r.db.QueryRowContext(ctx, q, bookID, userID).Scan(&res.ID, &res.BookID, &res.UserID, &res.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, domain.ErrDBUnavailable(err)
	}
	return res, true, nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM reservations WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReservationNotFound()
	}
	return nil
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID string, p catalog.Page) ([]catalog.ReservationRecord, int, error) {
	const countQ = `SELECT COUNT(1) FROM reservations WHERE user_id = $1;`
	listQ := `
SELECT r.id, r.book_id, r.user_id, r.created_at, ` + prefixed("b", bookColumns) + `
FROM reservations r
JOIN books b ON b.id = r.book_id
WHERE r.user_id = $1
ORDER BY r.created_at DESC
LIMIT $2 OFFSET $3;`

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, userID).Scan(&total); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}

	rows, err := r.db.QueryContext(ctx, listQ, userID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var recs []catalog.ReservationRecord
	for rows.Next() {
		var (
			res domain.Reservation
			br  bookRow
		)
		err := rows.Scan(
			&res.ID, &res.BookID, &res.UserID, &res.CreatedAt,
			&br.ID, &br.Title, &br.Author, &br.ISBN, &br.Synopsis,
			&br.Cover, &br.Archived, &br.Shareable, &br.OwnerID, &br.CreatedAt,
		)
		if err != nil {
			return nil, 0, domain.ErrDBUnavailable(err)
		}
		recs = append(recs, catalog.ReservationRecord{Reservation: res, Book: br.toDomain()})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	return recs, total, nil
}
