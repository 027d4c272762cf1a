package auth

import (
	"context"
	"strings"

	"github.com/shelfshare/shelfshare/internal/domain"
)

// ForgotPassword emails a 6-digit reset code. Unlike login this endpoint is
// allowed to say the email is unknown; the UI needs to tell the user they
// typed the wrong address.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.ErrMissingField("email")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.ErrUserNotFound()
	}

	return s.sendCode(ctx, u, domain.CodeForgotPassword, s.mailer.SendPasswordReset)
}

// VerifyResetCode checks a reset code and marks it validated. The actual
// password change is a second step that requires this one to have happened.
func (s *Service) VerifyResetCode(ctx context.Context, code string) error {
	return s.verifyCode(ctx, code, domain.CodeForgotPassword)
}

// VerifySetPasswordCode is the same step for admin-created accounts setting
// their first password.
func (s *Service) VerifySetPasswordCode(ctx context.Context, code string) error {
	return s.verifyCode(ctx, code, domain.CodeSetPassword)
}

func (s *Service) verifyCode(ctx context.Context, code string, kind domain.CodeKind) error {
	vc, err := s.codes.Resolve(ctx, code, kind)
	if err != nil {
		return err
	}
	if vc.Expired(s.now()) {
		return domain.ErrCodeExpired()
	}
	return s.codes.MarkValidated(ctx, vc.ID)
}

type ResetPasswordInput struct {
	Code            string
	NewPassword     string
	ConfirmPassword string
}

// ResetPassword sets a new password from a validated reset code.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	return s.resetWithKind(ctx, in, domain.CodeForgotPassword)
}

// SetPassword is the first-password variant for admin-created accounts.
func (s *Service) SetPassword(ctx context.Context, in ResetPasswordInput) error {
	return s.resetWithKind(ctx, in, domain.CodeSetPassword)
}

func (s *Service) resetWithKind(ctx context.Context, in ResetPasswordInput, kind domain.CodeKind) error {
	if in.NewPassword != in.ConfirmPassword {
		return domain.ErrPasswordMismatch()
	}

	vc, err := s.codes.Resolve(ctx, in.Code, kind)
	if err != nil {
		return err
	}
	if vc.Expired(s.now()) {
		return domain.ErrCodeExpired()
	}
	if !vc.Validated() {
		return domain.ErrCodeNotVerified()
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return domain.ErrHashFailed(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, vc.UserID, hash); err != nil {
		return err
	}
	// the code is spent
	return s.codes.Delete(ctx, vc.Code)
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ChangePassword is the logged-in variant: proves the current password
// instead of an emailed code.
func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(u.PasswordHash, in.CurrentPassword); err != nil {
		return domain.ErrInvalidCredentials()
	}
	if in.NewPassword == in.CurrentPassword {
		return domain.ErrSamePassword()
	}
	if in.NewPassword != in.ConfirmPassword {
		return domain.ErrPasswordMismatch()
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return domain.ErrHashFailed(err)
	}
	return s.users.UpdatePasswordHash(ctx, u.ID, hash)
}
