package auth

import (
	"context"
	"time"

	"github.com/shelfshare/shelfshare/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
Only describes WHAT the auth service needs, not HOW it's stored.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// Updates needed by business flows
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
	Enable(ctx context.Context, userID string) error
}

/*
RoleRepo
--------
Roles are seeded rows, not request data. A missing role is a deployment
fault surfaced as an internal error.
*/
type RoleRepo interface {
	FindByName(ctx context.Context, name string) (domain.Role, error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt / argon2.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenSigner
-----------
Issues and verifies access tokens (JWT).
Used by service + auth middleware.
*/
type TokenClaims struct {
	UserID   string
	FullName string
	Roles    []string
	Exp      time.Time
}

type TokenSigner interface {
	SignAccessToken(userID, fullName string, roles []string, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
}

/*
CodeStore
---------
Short-lived verification codes for:
- account activation
- forgot password
- initial password set (admin-created accounts)
Stored + consumed ONLY by the auth service.
*/
type CodeStore interface {
	Issue(ctx context.Context, userID string, kind domain.CodeKind) (string, error)
	Resolve(ctx context.Context, code string, kind domain.CodeKind) (domain.VerificationCode, error)
	MarkValidated(ctx context.Context, id string) error
	Delete(ctx context.Context, code string) error
}

/*
Mailer
------
Outbound transactional email. Failures propagate to the caller so the
triggering operation can compensate (drop the code it just issued).
*/
type Mailer interface {
	SendActivation(ctx context.Context, to, name, code string) error
	SendPasswordReset(ctx context.Context, to, name, code string) error
	SendSetPassword(ctx context.Context, to, name, code string) error
}
