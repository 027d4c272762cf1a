package postgres

import (
	"context"
	"database/sql"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `id, user_id, status, message, book_title, read, created_at`

func scanNotification(sc interface{ Scan(...any) error }) (domain.Notification, error) {
	var (
		n      domain.Notification
		status string
	)
	err := sc.Scan(&n.ID, &n.UserID, &status, &n.Message, &n.BookTitle, &n.Read, &n.CreatedAt)
	if err != nil {
		return domain.Notification{}, err
	}
	n.Status = domain.NotificationStatus(status)
	return n, nil
}

func (r *NotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const q = `
INSERT INTO notifications (id, user_id, status, message, book_title)
VALUES ($1,$2,$3,$4,$5)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q, n.ID, n.UserID, string(n.Status), n.Message, n.BookTitle).Scan(&n.CreatedAt)
	if err != nil {
		return domain.Notification{}, domain.ErrDBUnavailable(err)
	}
	return n, nil
}

func (r *NotificationRepo) GetByID(ctx context.Context, id string) (domain.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1 LIMIT 1;`
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return domain.Notification{}, domain.ErrNotificationNotFound()
		}
		return domain.Notification{}, domain.ErrDBUnavailable(err)
	}
	return n, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read = FALSE`
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	const q = `UPDATE notifications SET read = TRUE WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotificationNotFound()
	}
	return nil
}

// MarkAllRead is one bulk UPDATE, regardless of how many rows it touches.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	const q = `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE;`
	if _, err := r.db.ExecContext(ctx, q, userID); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
