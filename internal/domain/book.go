package domain

import (
	"math"
	"time"
)

type Book struct {
	ID        string
	Title     string
	Author    string
	ISBN      string
	Synopsis  string
	Cover     string // blob store handle, empty when no cover uploaded
	Archived  bool
	Shareable bool
	OwnerID   string
	CreatedAt time.Time
}

// Borrowable reports whether the book is in circulation at all. Ownership is
// checked separately so owners get a precise error.
func (b Book) Borrowable() bool {
	return !b.Archived && b.Shareable
}

// Rate computes the mean of feedback notes rounded to one decimal.
// Books without feedback rate 0.0.
func Rate(notes []float64) float64 {
	if len(notes) == 0 {
		return 0.0
	}
	var sum float64
	for _, n := range notes {
		sum += n
	}
	return math.Round(sum/float64(len(notes))*10.0) / 10.0
}
