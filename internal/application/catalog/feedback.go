package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type FeedbackInput struct {
	BookID  string
	Note    float64
	Comment string
}

// SubmitFeedback records a note and comment on a book the caller does not
// own. Feedback is immutable afterwards.
func (s *Service) SubmitFeedback(ctx context.Context, userID string, in FeedbackInput) (domain.Feedback, error) {
	if in.Note < 0 || in.Note > 5 {
		return domain.Feedback{}, domain.ErrInvalidNote()
	}

	b, err := s.books.GetByID(ctx, in.BookID)
	if err != nil {
		return domain.Feedback{}, err
	}
	if !b.Borrowable() {
		return domain.Feedback{}, domain.ErrFeedbackNotAllowed()
	}
	if b.OwnerID == userID {
		return domain.Feedback{}, domain.ErrOwnBookFeedback()
	}

	return s.feedbacks.Create(ctx, domain.Feedback{
		ID:        uuid.NewString(),
		BookID:    in.BookID,
		Note:      in.Note,
		Comment:   in.Comment,
		CreatedBy: userID,
	})
}

// FeedbackView marks the viewer's own entries so the UI can highlight them.
type FeedbackView struct {
	Feedback    domain.Feedback
	OwnFeedback bool
}

func (s *Service) ListFeedback(ctx context.Context, bookID, viewerID string, p Page) (Paged[FeedbackView], error) {
	p = p.Normalize()
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return Paged[FeedbackView]{}, err
	}
	items, total, err := s.feedbacks.ListByBook(ctx, bookID, p)
	if err != nil {
		return Paged[FeedbackView]{}, err
	}
	views := make([]FeedbackView, 0, len(items))
	for _, f := range items {
		views = append(views, FeedbackView{Feedback: f, OwnFeedback: f.CreatedBy == viewerID})
	}
	return newPaged(views, p, total), nil
}
