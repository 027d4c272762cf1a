package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// CodeRepo stores verification codes. Codes are persisted rather than cached
// because the validated_at handshake and the re-issue-on-expiry flow need
// durable state.
type CodeRepo struct {
	db *sql.DB
}

func NewCodeRepo(db *sql.DB) *CodeRepo {
	return &CodeRepo{db: db}
}

func (r *CodeRepo) DeleteByUserAndKind(ctx context.Context, userID string, kind domain.CodeKind) error {
	const q = `DELETE FROM verification_codes WHERE user_id = $1 AND kind = $2;`
	if _, err := r.db.ExecContext(ctx, q, userID, string(kind)); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *CodeRepo) Create(ctx context.Context, c domain.VerificationCode) error {
	const q = `
INSERT INTO verification_codes (id, code, kind, user_id, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6);
`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.Code, string(c.Kind), c.UserID, c.CreatedAt, c.ExpiresAt)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *CodeRepo) LatestByCodeAndKind(ctx context.Context, code string, kind domain.CodeKind) (domain.VerificationCode, error) {
	const q = `
SELECT id, code, kind, user_id, created_at, expires_at, validated_at
FROM verification_codes
WHERE code = $1 AND kind = $2
ORDER BY created_at DESC
LIMIT 1;
`
	var (
		vc          domain.VerificationCode
		kindStr     string
		validatedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, code, string(kind)).Scan(
		&vc.ID, &vc.Code, &kindStr, &vc.UserID, &vc.CreatedAt, &vc.ExpiresAt, &validatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return domain.VerificationCode{}, domain.ErrCodeNotFound()
		}
		return domain.VerificationCode{}, domain.ErrDBUnavailable(err)
	}
	vc.Kind = domain.CodeKind(kindStr)
	if validatedAt.Valid {
		t := validatedAt.Time
		vc.ValidatedAt = &t
	}
	return vc, nil
}

func (r *CodeRepo) MarkValidated(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE verification_codes SET validated_at = $2 WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCodeNotFound()
	}
	return nil
}

func (r *CodeRepo) DeleteByCode(ctx context.Context, code string) error {
	const q = `DELETE FROM verification_codes WHERE code = $1;`
	if _, err := r.db.ExecContext(ctx, q, code); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
