package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type RoleRepo struct {
	db *sql.DB
}

func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

func (r *RoleRepo) FindByName(ctx context.Context, name string) (domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrMissingField("role")
	}

	const q = `SELECT name FROM roles WHERE name = $1 LIMIT 1;`
	var got string
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&got); err != nil {
		if isNoRows(err) {
			return "", domain.ErrRoleMissing(name)
		}
		return "", domain.ErrDBUnavailable(err)
	}
	return domain.Role(got), nil
}

// SeedRoles inserts the built-in roles if they are not present yet.
// Called once at startup.
func SeedRoles(ctx context.Context, db *sql.DB) error {
	const q = `
INSERT INTO roles (name)
VALUES ('USER'), ('ADMIN')
ON CONFLICT (name) DO NOTHING;
`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
