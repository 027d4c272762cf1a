package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindExpired        ErrKind = "expired"        // 410
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients (avoid leaking sensitive details)
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrWeakPassword(reason string) *Error {
	return WithMeta(New(KindValidation, "weak_password", "password does not meet requirements"), map[string]string{
		"reason": reason,
	})
}

func ErrPasswordMismatch() *Error {
	return New(KindValidation, "password_mismatch", "passwords do not match")
}

func ErrSamePassword() *Error {
	return New(KindValidation, "same_password", "new password must differ from the current one")
}

func ErrInvalidNote() *Error {
	return WithMeta(New(KindValidation, "invalid_note", "invalid field"), map[string]string{
		"field":  "note",
		"reason": "must be between 0 and 5",
	})
}

// ----------------------
// Auth errors (401)
// ----------------------

// IMPORTANT: use this for login failures to avoid user enumeration.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", "invalid email or password")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "token is expired")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrForbidden() *Error {
	return New(KindForbidden, "forbidden", "forbidden")
}

func ErrInsufficientRole(required string) *Error {
	return WithMeta(New(KindForbidden, "insufficient_role", "insufficient role"), map[string]string{
		"required": required,
	})
}

func ErrAccountLocked() *Error {
	return New(KindForbidden, "account_locked", "account locked")
}

func ErrAccountDisabled() *Error {
	return New(KindForbidden, "account_disabled", "account not activated")
}

// A verification code must be validated before the reset step.
func ErrCodeNotVerified() *Error {
	return New(KindForbidden, "code_not_verified", "verification code not verified")
}

func ErrNotBookOwner(action string) *Error {
	return WithMeta(New(KindForbidden, "not_book_owner", "only the book owner may do this"), map[string]string{
		"action": action,
	})
}

func ErrNotNotificationOwner() *Error {
	return New(KindForbidden, "not_notification_owner", "not allowed to update this notification")
}

// ----------------------
// Lending guard failures (403)
// ----------------------
// Guard order matters for user-facing error precision; see catalog service.

func ErrBookNotBorrowable() *Error {
	return New(KindForbidden, "book_not_borrowable", "this book cannot be borrowed (archived or not shareable)")
}

func ErrBookArchived() *Error {
	return New(KindForbidden, "book_archived", "archived book cannot be reserved")
}

func ErrOwnBook(action string) *Error {
	return WithMeta(New(KindForbidden, "own_book", "you cannot "+action+" your own book"), map[string]string{
		"action": action,
	})
}

func ErrAlreadyBorrowed() *Error {
	return New(KindForbidden, "already_borrowed", "the requested book is already borrowed")
}

func ErrBorrowedByOther() *Error {
	return New(KindForbidden, "borrowed_by_other", "the requested book is borrowed by another user")
}

func ErrNotBorrowed() *Error {
	return New(KindForbidden, "not_borrowed", "you did not borrow this book")
}

func ErrReturnNotPending() *Error {
	return New(KindForbidden, "return_not_pending", "the book is not returned yet, you cannot approve its return")
}

func ErrBookAvailable() *Error {
	return New(KindForbidden, "book_available", "this book is currently available, you can borrow it directly")
}

func ErrFeedbackNotAllowed() *Error {
	return New(KindForbidden, "feedback_not_allowed", "you cannot give feedback on an archived or not shareable book")
}

func ErrOwnBookFeedback() *Error {
	return New(KindForbidden, "own_book_feedback", "you cannot give feedback on your own book")
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "user not found")
}

func ErrBookNotFound(id string) *Error {
	return WithMeta(New(KindNotFound, "book_not_found", "book not found"), map[string]string{
		"book_id": id,
	})
}

func ErrCodeNotFound() *Error {
	return New(KindNotFound, "code_not_found", "verification code not found")
}

func ErrReservationNotFound() *Error {
	return New(KindNotFound, "reservation_not_found", "no reservation found for this user and book")
}

func ErrNotificationNotFound() *Error {
	return New(KindNotFound, "notification_not_found", "notification not found")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrEmailAlreadyExists() *Error {
	return New(KindConflict, "email_already_exists", "email already registered")
}

func ErrAlreadyReserved() *Error {
	return New(KindConflict, "already_reserved", "you already reserved this book")
}

// ----------------------
// Expired (410)
// ----------------------

// Verification codes past expires_at. Distinct from JWT expiry, which is an
// auth failure.
func ErrCodeExpired() *Error {
	return New(KindExpired, "code_expired", "verification code expired")
}

func ErrCodeExpiredResent() *Error {
	return New(KindExpired, "code_expired_resent", "verification code expired, a new one has been sent to the same email")
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrEmailSendFailed(cause error) *Error {
	return Wrap(KindInfrastructure, "email_send_failed", "could not send email", cause)
}

func ErrStorageUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "storage_unavailable", "file storage unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}

// Missing default role is a deployment fault, not a request error.
func ErrRoleMissing(name string) *Error {
	return WithMeta(Wrap(KindInternal, "role_missing", "default role not found", nil), map[string]string{
		"role": name,
	})
}
