package domain

import "time"

// Reservation is a claim on a currently-borrowed book. At most one per
// (book,user) pair; deleted on cancellation.
type Reservation struct {
	ID        string
	BookID    string
	UserID    string
	CreatedAt time.Time
}
