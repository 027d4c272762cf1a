package dto

import (
	"time"

	"github.com/shelfshare/shelfshare/internal/application/auth"
	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/domain"
)

// -------- Auth --------

type RegisterRequest struct {
	FirstName string `json:"firstname" validate:"required"`
	LastName  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

func (r RegisterRequest) ToInput() auth.RegisterInput {
	return auth.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
	}
}

type AuthenticateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ActivateAccountRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Code            string `json:"code" validate:"required,len=6,numeric"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (r ResetPasswordRequest) ToInput() auth.ResetPasswordInput {
	return auth.ResetPasswordInput{
		Code:            r.Code,
		NewPassword:     r.NewPassword,
		ConfirmPassword: r.ConfirmPassword,
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (r ChangePasswordRequest) ToInput() auth.ChangePasswordInput {
	return auth.ChangePasswordInput{
		CurrentPassword: r.CurrentPassword,
		NewPassword:     r.NewPassword,
		ConfirmPassword: r.ConfirmPassword,
	}
}

type CreateUserRequest struct {
	FirstName   string   `json:"firstname" validate:"required"`
	LastName    string   `json:"lastname" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	DateOfBirth string   `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	Roles       []string `json:"roles,omitempty"`
}

func (r CreateUserRequest) ToInput() (auth.CreateUserInput, error) {
	in := auth.CreateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Roles:     r.Roles,
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", r.DateOfBirth)
		if err != nil {
			return auth.CreateUserInput{}, domain.ErrInvalidField("dateOfBirth", "expected YYYY-MM-DD")
		}
		in.DateOfBirth = &dob
	}
	return in, nil
}

// -------- Books --------

type SaveBookRequest struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title" validate:"required"`
	Author    string `json:"authorName" validate:"required"`
	ISBN      string `json:"isbn,omitempty"`
	Synopsis  string `json:"synopsis,omitempty"`
	Shareable bool   `json:"shareable"`
}

func (r SaveBookRequest) ToInput() catalog.SaveBookInput {
	return catalog.SaveBookInput{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		ISBN:      r.ISBN,
		Synopsis:  r.Synopsis,
		Shareable: r.Shareable,
	}
}

type FeedbackRequest struct {
	Note    float64 `json:"note" validate:"min=0,max=5"`
	Comment string  `json:"comment,omitempty"`
}
