package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/shelfshare/shelfshare/internal/domain"
)

func TestNotificationRepo_MarkAllRead_SingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := NewNotificationRepo(db)
	require.NoError(t, repo.MarkAllRead(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_MarkAllRead_ZeroRowsIsFine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET read = TRUE`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewNotificationRepo(db)
	require.NoError(t, repo.MarkAllRead(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_ListByUser_UnreadFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM notifications WHERE user_id = \$1 AND read = FALSE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "status", "message", "book_title", "read", "created_at",
		}).AddRow("n1", "u1", "BORROWED", "Your book has been borrowed", "Dune", false, now))

	repo := NewNotificationRepo(db)
	out, err := repo.ListByUser(context.Background(), "u1", true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, domain.StatusBorrowed, out[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_MarkRead_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET read = TRUE WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewNotificationRepo(db)
	err = repo.MarkRead(context.Background(), "ghost")
	require.True(t, domain.Is(err, "notification_not_found"), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}
