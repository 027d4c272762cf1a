package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a disabled account and emails a 6-digit activation code.
// The account stays unusable until ActivateAccount flips it on.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if in.Password == "" {
		return domain.User{}, domain.ErrMissingField("password")
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}

	role, err := s.roles.FindByName(ctx, string(domain.RoleUser))
	if err != nil {
		return domain.User{}, domain.ErrRoleMissing(string(domain.RoleUser))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, domain.ErrHashFailed(err)
	}

	u := domain.User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: hash,
		Roles:        []string{string(role)},
		Enabled:      false,
		Locked:       false,
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.sendCode(ctx, created, domain.CodeAccountActivation, s.mailer.SendActivation); err != nil {
		return domain.User{}, err
	}
	return created, nil
}

// ActivateAccount consumes an activation code and enables the account.
// An expired code triggers a fresh one to the same address so the user is
// never stranded.
func (s *Service) ActivateAccount(ctx context.Context, code string) error {
	vc, err := s.codes.Resolve(ctx, code, domain.CodeAccountActivation)
	if err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, vc.UserID)
	if err != nil {
		return err
	}

	if vc.Expired(s.now()) {
		if err := s.sendCode(ctx, u, domain.CodeAccountActivation, s.mailer.SendActivation); err != nil {
			return err
		}
		return domain.ErrCodeExpiredResent()
	}

	if err := s.users.Enable(ctx, u.ID); err != nil {
		return err
	}
	if err := s.codes.MarkValidated(ctx, vc.ID); err != nil {
		// account is already enabled; log and move on
		log.Warn().Err(err).Str("user_id", u.ID).Msg("mark activation code validated failed")
	}
	return nil
}

// sendCode issues a fresh code and hands it to the mailer. If the send fails
// the code is dropped again so a dead code never lingers in storage.
func (s *Service) sendCode(
	ctx context.Context,
	u domain.User,
	kind domain.CodeKind,
	send func(ctx context.Context, to, name, code string) error,
) error {
	code, err := s.codes.Issue(ctx, u.ID, kind)
	if err != nil {
		return err
	}
	if err := send(ctx, u.Email, u.FullName(), code); err != nil {
		if delErr := s.codes.Delete(ctx, code); delErr != nil {
			log.Warn().Err(delErr).Str("user_id", u.ID).Msg("compensating code delete failed")
		}
		return domain.ErrEmailSendFailed(err)
	}
	return nil
}
