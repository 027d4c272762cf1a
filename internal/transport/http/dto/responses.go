package dto

import (
	"time"

	"github.com/shelfshare/shelfshare/internal/application/auth"
	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/domain"
)

// -------- Auth --------

type UserResponse struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstname"`
	LastName  string   `json:"lastname"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	Enabled   bool     `json:"enabled"`
}

func ToUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     u.Roles,
		Enabled:   u.Enabled,
	}
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // "Bearer"
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

func ToAuthResponse(t auth.AuthTokens) AuthResponse {
	return AuthResponse{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		ExpiresIn:   t.ExpiresIn,
	}
}

type StatusResponse struct {
	Status string `json:"status"`
}

// -------- Books --------

type BookResponse struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"authorName"`
	ISBN      string  `json:"isbn,omitempty"`
	Synopsis  string  `json:"synopsis,omitempty"`
	Owner     string  `json:"owner,omitempty"`
	OwnerID   string  `json:"ownerId"`
	Rate      float64 `json:"rate"`
	Archived  bool    `json:"archived"`
	Shareable bool    `json:"shareable"`
	HasCover  bool    `json:"hasCover"`
}

func ToBookResponse(v catalog.BookView) BookResponse {
	return BookResponse{
		ID:        v.Book.ID,
		Title:     v.Book.Title,
		Author:    v.Book.Author,
		ISBN:      v.Book.ISBN,
		Synopsis:  v.Book.Synopsis,
		Owner:     v.OwnerName,
		OwnerID:   v.Book.OwnerID,
		Rate:      v.Rate,
		Archived:  v.Book.Archived,
		Shareable: v.Book.Shareable,
		HasCover:  v.Book.Cover != "",
	}
}

type BorrowedBookResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"authorName"`
	ISBN           string    `json:"isbn,omitempty"`
	Rate           float64   `json:"rate"`
	LoanID         string    `json:"loanId"`
	Returned       bool      `json:"returned"`
	ReturnApproved bool      `json:"returnApproved"`
	BorrowedAt     time.Time `json:"borrowedAt"`
}

func ToBorrowedBookResponse(v catalog.BorrowedView) BorrowedBookResponse {
	return BorrowedBookResponse{
		ID:             v.Book.ID,
		Title:          v.Book.Title,
		Author:         v.Book.Author,
		ISBN:           v.Book.ISBN,
		Rate:           v.Rate,
		LoanID:         v.Loan.ID,
		Returned:       v.Loan.Returned,
		ReturnApproved: v.Loan.ReturnedApproved,
		BorrowedAt:     v.Loan.CreatedAt,
	}
}

type ReservationResponse struct {
	ID         string    `json:"id"`
	BookID     string    `json:"bookId"`
	Title      string    `json:"title"`
	Author     string    `json:"authorName"`
	Rate       float64   `json:"rate"`
	ReservedAt time.Time `json:"reservedAt"`
}

func ToReservationResponse(v catalog.ReservationView) ReservationResponse {
	return ReservationResponse{
		ID:         v.Reservation.ID,
		BookID:     v.Book.ID,
		Title:      v.Book.Title,
		Author:     v.Book.Author,
		Rate:       v.Rate,
		ReservedAt: v.Reservation.CreatedAt,
	}
}

type FeedbackResponse struct {
	ID          string    `json:"id"`
	Note        float64   `json:"note"`
	Comment     string    `json:"comment,omitempty"`
	OwnFeedback bool      `json:"ownFeedback"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToFeedbackResponse(v catalog.FeedbackView) FeedbackResponse {
	return FeedbackResponse{
		ID:          v.Feedback.ID,
		Note:        v.Feedback.Note,
		Comment:     v.Feedback.Comment,
		OwnFeedback: v.OwnFeedback,
		CreatedAt:   v.Feedback.CreatedAt,
	}
}

// -------- Notifications --------

type NotificationResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	BookTitle string    `json:"bookTitle,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToNotificationResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Status:    string(n.Status),
		Message:   n.Message,
		BookTitle: n.BookTitle,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func ToNotificationResponses(ns []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, ToNotificationResponse(n))
	}
	return out
}

// -------- Paging --------

type PageResponse[T any] struct {
	Content       []T  `json:"content"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

func ToPageResponse[S, T any](p catalog.Paged[S], conv func(S) T) PageResponse[T] {
	content := make([]T, 0, len(p.Items))
	for _, it := range p.Items {
		content = append(content, conv(it))
	}
	return PageResponse[T]{
		Content:       content,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
