package domain

import "time"

// Feedback is immutable once created; there is no update or delete path.
type Feedback struct {
	ID        string
	BookID    string
	Note      float64 // 0..5
	Comment   string
	CreatedBy string
	CreatedAt time.Time
}
