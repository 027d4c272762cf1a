package domain

import "time"

// CodeKind scopes a verification code to one purpose. Lookups are always by
// (code,kind) so a code issued for one flow cannot be replayed in another.
type CodeKind string

const (
	CodeAccountActivation CodeKind = "account_activation"
	CodeForgotPassword    CodeKind = "forgot_password"
	CodeSetPassword       CodeKind = "set_password"
)

func IsValidCodeKind(k string) bool {
	switch CodeKind(k) {
	case CodeAccountActivation, CodeForgotPassword, CodeSetPassword:
		return true
	default:
		return false
	}
}

// VerificationCode is a short-lived numeric credential proving control of an
// email address. Exactly one live code per (user,kind); issuing a new one
// deletes its predecessors.
type VerificationCode struct {
	ID          string
	Code        string // 6 decimal digits
	Kind        CodeKind
	UserID      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ValidatedAt *time.Time
}

func (c VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (c VerificationCode) Validated() bool {
	return c.ValidatedAt != nil
}
