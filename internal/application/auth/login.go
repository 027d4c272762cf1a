package auth

import (
	"context"
	"strings"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// Login authenticates a user and issues an access token.
// IMPORTANT: must not leak whether the email exists (avoid user enumeration).
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Hide not-found behind invalid credentials
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	// Policy checks come AFTER the password check so a wrong password on a
	// locked account still reads as invalid credentials.
	if u.Locked {
		return LoginResult{}, domain.ErrAccountLocked()
	}
	if !u.Enabled {
		return LoginResult{}, domain.ErrAccountDisabled()
	}

	access, err := s.signer.SignAccessToken(u.ID, u.FullName(), u.Roles, s.accessTTL)
	if err != nil {
		return LoginResult{}, domain.ErrTokenSignFailed(err)
	}

	return LoginResult{
		User: u,
		Tokens: AuthTokens{
			AccessToken: access,
			TokenType:   "Bearer",
			ExpiresIn:   int64(s.accessTTL.Seconds()),
		},
	}, nil
}
