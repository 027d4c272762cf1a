package auth

import (
	"time"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type Service struct {
	users  UserRepo
	roles  RoleRepo
	hasher PasswordHasher
	signer TokenSigner
	codes  CodeStore
	mailer Mailer

	accessTTL time.Duration
	now       func() time.Time
}

type Config struct {
	AccessTTL time.Duration
}

func NewService(
	users UserRepo,
	roles RoleRepo,
	hasher PasswordHasher,
	signer TokenSigner,
	codes CodeStore,
	mailer Mailer,
	cfg Config,
) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &Service{
		users:  users,
		roles:  roles,
		hasher: hasher,
		signer: signer,
		codes:  codes,
		mailer: mailer,

		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// AuthTokens is the common token output for handlers/DTO mapping.
type AuthTokens struct {
	AccessToken string
	ExpiresIn   int64  // seconds
	TokenType   string // "Bearer"
}

type LoginResult struct {
	User   domain.User
	Tokens AuthTokens
}
