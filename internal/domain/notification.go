package domain

import "time"

type NotificationStatus string

const (
	StatusBorrowed       NotificationStatus = "BORROWED"
	StatusReturned       NotificationStatus = "RETURNED"
	StatusReturnApproved NotificationStatus = "RETURN_APPROVED"
	StatusReserved       NotificationStatus = "RESERVED"
	StatusCancelled      NotificationStatus = "CANCELLED"
)

type Notification struct {
	ID        string
	UserID    string
	Status    NotificationStatus
	Message   string
	BookTitle string
	Read      bool
	CreatedAt time.Time
}
