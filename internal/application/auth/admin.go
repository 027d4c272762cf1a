package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type CreateUserInput struct {
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth *time.Time
	Roles       []string
}

// CreateUser is the admin path: the account is created enabled but without a
// password, and the user receives a set-password code by email.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{string(domain.RoleUser)}
	}
	for _, r := range roles {
		if !domain.IsValidRole(r) {
			return domain.User{}, domain.ErrInvalidField("roles", "unknown role "+r)
		}
		if _, err := s.roles.FindByName(ctx, r); err != nil {
			return domain.User{}, domain.ErrRoleMissing(r)
		}
	}

	u := domain.User{
		ID:          uuid.NewString(),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       in.Email,
		DateOfBirth: in.DateOfBirth,
		Roles:       roles,
		// no password hash yet; login fails until SetPassword completes
		Enabled: true,
		Locked:  false,
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.sendCode(ctx, created, domain.CodeSetPassword, s.mailer.SendSetPassword); err != nil {
		return domain.User{}, err
	}
	return created, nil
}
