package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a Postgres unique constraint failure, optionally
// scoped to one constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

type userRow struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	DateOfBirth  sql.NullTime
	PasswordHash sql.NullString
	Enabled      bool
	Locked       bool
	CreatedAt    time.Time
}

func toDomainUser(ur userRow, roles []string) domain.User {
	u := domain.User{
		ID:           ur.ID,
		FirstName:    ur.FirstName,
		LastName:     ur.LastName,
		Email:        ur.Email,
		PasswordHash: ur.PasswordHash.String,
		Roles:        roles,
		Enabled:      ur.Enabled,
		Locked:       ur.Locked,
		CreatedAt:    ur.CreatedAt,
	}
	if ur.DateOfBirth.Valid {
		dob := ur.DateOfBirth.Time
		u.DateOfBirth = &dob
	}
	return u
}

const userColumns = `id, first_name, last_name, email, date_of_birth, password_hash, enabled, locked, created_at`

func (r *UserRepo) scanUserRow(row *sql.Row) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.FirstName,
		&ur.LastName,
		&ur.Email,
		&ur.DateOfBirth,
		&ur.PasswordHash,
		&ur.Enabled,
		&ur.Locked,
		&ur.CreatedAt,
	)
	return ur, err
}

func (r *UserRepo) rolesOf(ctx context.Context, userID string) ([]string, error) {
	const q = `
SELECT ro.name
FROM user_roles ur
JOIN roles ro ON ro.id = ur.role_id
WHERE ur.user_id = $1
ORDER BY ro.name;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return roles, nil
}

// ---------- auth.UserRepo ----------

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}

	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1;`
	ur, err := r.scanUserRow(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	roles, err := r.rolesOf(ctx, ur.ID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(ur, roles), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}

	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1;`
	ur, err := r.scanUserRow(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	roles, err := r.rolesOf(ctx, ur.ID)
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(ur, roles), nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, domain.ErrMissingField("email")
	}

	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1);`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&exists); err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	return exists, nil
}

// Create inserts the user and its role links in one transaction.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	defer tx.Rollback()

	const insUser = `
INSERT INTO users (id, first_name, last_name, email, date_of_birth, password_hash, enabled, locked)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8)
RETURNING created_at;
`
	var dob sql.NullTime
	if u.DateOfBirth != nil {
		dob = sql.NullTime{Time: *u.DateOfBirth, Valid: true}
	}
	err = tx.QueryRowContext(ctx, insUser,
		u.ID, u.FirstName, u.LastName, u.Email, dob, u.PasswordHash, u.Enabled, u.Locked,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}

	const insRole = `
INSERT INTO user_roles (user_id, role_id)
SELECT $1, id FROM roles WHERE name = $2;
`
	for _, role := range u.Roles {
		res, err := tx.ExecContext(ctx, insRole, u.ID, role)
		if err != nil {
			return domain.User{}, domain.ErrDBUnavailable(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.User{}, domain.ErrRoleMissing(role)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return u, nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	if newHash == "" {
		return domain.ErrMissingField("password_hash")
	}

	const q = `UPDATE users SET password_hash = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, userID, newHash)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

func (r *UserRepo) Enable(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}

	const q = `UPDATE users SET enabled = TRUE WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}
