package postgres

import (
	"context"
	"database/sql"

	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/domain"
)

type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

func (r *FeedbackRepo) Create(ctx context.Context, f domain.Feedback) (domain.Feedback, error) {
	const q = `
INSERT INTO feedbacks (id, book_id, note, comment, created_by)
VALUES ($1,$2,$3,NULLIF($4,''),$5)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q, f.ID, f.BookID, f.Note, f.Comment, f.CreatedBy).Scan(&f.CreatedAt)
	if err != nil {
		return domain.Feedback{}, domain.ErrDBUnavailable(err)
	}
	return f, nil
}

func (r *FeedbackRepo) ListByBook(ctx context.Context, bookID string, p catalog.Page) ([]domain.Feedback, int, error) {
	const countQ = `SELECT COUNT(1) FROM feedbacks WHERE book_id = $1;`
	const listQ = `
SELECT id, book_id, note, COALESCE(comment, ''), created_by, created_at
FROM feedbacks
WHERE book_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;
`
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, bookID).Scan(&total); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}

	rows, err := r.db.QueryContext(ctx, listQ, bookID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.BookID, &f.Note, &f.Comment, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, 0, domain.ErrDBUnavailable(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	return out, total, nil
}

func (r *FeedbackRepo) NotesByBook(ctx context.Context, bookID string) ([]float64, error) {
	const q = `SELECT note FROM feedbacks WHERE book_id = $1;`
	rows, err := r.db.QueryContext(ctx, q, bookID)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var notes []float64
	for rows.Next() {
		var n float64
		if err := rows.Scan(&n); err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return notes, nil
}
