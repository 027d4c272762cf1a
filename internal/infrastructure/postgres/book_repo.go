package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/domain"
)

type BookRepo struct {
	db *sql.DB
}

func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{db: db}
}

const bookColumns = `id, title, author, isbn, synopsis, cover, archived, shareable, owner_id, created_at`

// prefixed qualifies a comma-separated column list with a table alias, for
// join queries that select from two tables.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ", ")
	for i, c := range parts {
		parts[i] = alias + "." + c
	}
	return strings.Join(parts, ", ")
}

type bookRow struct {
	ID        string
	Title     string
	Author    string
	ISBN      sql.NullString
	Synopsis  sql.NullString
	Cover     sql.NullString
	Archived  bool
	Shareable bool
	OwnerID   string
	CreatedAt time.Time
}

func (br bookRow) toDomain() domain.Book {
	return domain.Book{
		ID:        br.ID,
		Title:     br.Title,
		Author:    br.Author,
		ISBN:      br.ISBN.String,
		Synopsis:  br.Synopsis.String,
		Cover:     br.Cover.String,
		Archived:  br.Archived,
		Shareable: br.Shareable,
		OwnerID:   br.OwnerID,
		CreatedAt: br.CreatedAt,
	}
}

func scanBook(sc interface{ Scan(...any) error }) (domain.Book, error) {
	var br bookRow
	err := sc.Scan(
		&br.ID, &br.Title, &br.Author, &br.ISBN, &br.Synopsis,
		&br.Cover, &br.Archived, &br.Shareable, &br.OwnerID, &br.CreatedAt,
	)
	if err != nil {
		return domain.Book{}, err
	}
	return br.toDomain(), nil
}

func (r *BookRepo) GetByID(ctx context.Context, id string) (domain.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Book{}, domain.ErrMissingField("book_id")
	}

	q := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 LIMIT 1;`
	b, err := scanBook(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return domain.Book{}, domain.ErrBookNotFound(id)
		}
		return domain.Book{}, domain.ErrDBUnavailable(err)
	}
	return b, nil
}

func (r *BookRepo) Create(ctx context.Context, b domain.Book) (domain.Book, error) {
	const q = `
INSERT INTO books (id, title, author, isbn, synopsis, archived, shareable, owner_id)
VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),$6,$7,$8)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q,
		b.ID, b.Title, b.Author, b.ISBN, b.Synopsis, b.Archived, b.Shareable, b.OwnerID,
	).Scan(&b.CreatedAt)
	if err != nil {
		return domain.Book{}, domain.ErrDBUnavailable(err)
	}
	return b, nil
}

func (r *BookRepo) Update(ctx context.Context, b domain.Book) error {
	const q = `
UPDATE books
SET title = $2,
    author = $3,
    isbn = NULLIF($4,''),
    synopsis = NULLIF($5,''),
    archived = $6,
    shareable = $7
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, b.ID, b.Title, b.Author, b.ISBN, b.Synopsis, b.Archived, b.Shareable)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBookNotFound(b.ID)
	}
	return nil
}

func (r *BookRepo) SetCover(ctx context.Context, bookID, handle string) error {
	const q = `UPDATE books SET cover = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, bookID, handle)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBookNotFound(bookID)
	}
	return nil
}

// ListDisplayable returns shareable, unarchived books not owned by the
// viewer, newest first.
func (r *BookRepo) ListDisplayable(ctx context.Context, viewerID string, p catalog.Page) ([]domain.Book, int, error) {
	const where = `WHERE shareable = TRUE AND archived = FALSE AND owner_id <> $1`

	q := `SELECT ` + bookColumns + ` FROM books ` + where + `
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`
	return r.listBooks(ctx, q, `SELECT COUNT(1) FROM books `+where+`;`, viewerID, p)
}

func (r *BookRepo) ListByOwner(ctx context.Context, ownerID string, p catalog.Page) ([]domain.Book, int, error) {
	const where = `WHERE owner_id = $1`

	q := `SELECT ` + bookColumns + ` FROM books ` + where + `
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`
	return r.listBooks(ctx, q, `SELECT COUNT(1) FROM books `+where+`;`, ownerID, p)
}

func (r *BookRepo) listBooks(ctx context.Context, listQ, countQ, arg string, p catalog.Page) ([]domain.Book, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, arg).Scan(&total); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}

	rows, err := r.db.QueryContext(ctx, listQ, arg, p.Size, p.Offset())
	if err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, domain.ErrDBUnavailable(err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	return books, total, nil
}
