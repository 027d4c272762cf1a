package postgres

import (
	"context"
	"database/sql"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// Migrate creates the schema if it does not exist. Statements are idempotent
// so startup can always run this.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS roles (
			id   SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL UNIQUE,
			date_of_birth DATE,
			password_hash TEXT,
			enabled       BOOLEAN NOT NULL DEFAULT FALSE,
			locked        BOOLEAN NOT NULL DEFAULT FALSE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role_id INT  NOT NULL REFERENCES roles(id),
			PRIMARY KEY (user_id, role_id)
		);`,
		`CREATE TABLE IF NOT EXISTS verification_codes (
			id           UUID PRIMARY KEY,
			code         TEXT NOT NULL,
			kind         TEXT NOT NULL,
			user_id      UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at   TIMESTAMPTZ NOT NULL,
			expires_at   TIMESTAMPTZ NOT NULL,
			validated_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS verification_codes_lookup
			ON verification_codes (code, kind, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS verification_codes_user_kind
			ON verification_codes (user_id, kind);`,
		`CREATE TABLE IF NOT EXISTS books (
			id         UUID PRIMARY KEY,
			title      TEXT NOT NULL,
			author     TEXT NOT NULL,
			isbn       TEXT,
			synopsis   TEXT,
			cover      TEXT,
			archived   BOOLEAN NOT NULL DEFAULT FALSE,
			shareable  BOOLEAN NOT NULL DEFAULT FALSE,
			owner_id   UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS books_owner ON books (owner_id);`,
		`CREATE TABLE IF NOT EXISTS loans (
			id                UUID PRIMARY KEY,
			book_id           UUID NOT NULL REFERENCES books(id),
			user_id           UUID NOT NULL REFERENCES users(id),
			returned          BOOLEAN NOT NULL DEFAULT FALSE,
			returned_approved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		// one active loan per book, enforced in storage
		`CREATE UNIQUE INDEX IF NOT EXISTS loans_one_active_per_book
			ON loans (book_id) WHERE returned_approved = FALSE;`,
		`CREATE INDEX IF NOT EXISTS loans_user ON loans (user_id);`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id         UUID PRIMARY KEY,
			book_id    UUID NOT NULL REFERENCES books(id),
			user_id    UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (book_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS feedbacks (
			id         UUID PRIMARY KEY,
			book_id    UUID NOT NULL REFERENCES books(id),
			note       DOUBLE PRECISION NOT NULL CHECK (note >= 0 AND note <= 5),
			comment    TEXT,
			created_by UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS feedbacks_book ON feedbacks (book_id);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         UUID PRIMARY KEY,
			user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status     TEXT NOT NULL,
			message    TEXT NOT NULL,
			book_title TEXT NOT NULL DEFAULT '',
			read       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS notifications_user_unread
			ON notifications (user_id) WHERE read = FALSE;`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return domain.ErrDBUnavailable(err)
		}
	}
	return nil
}
