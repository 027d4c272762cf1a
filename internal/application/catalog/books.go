package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfshare/shelfshare/internal/domain"
)

type SaveBookInput struct {
	ID        string // empty on create
	Title     string
	Author    string
	ISBN      string
	Synopsis  string
	Shareable bool
}

// BookView is a book plus its computed rating.
type BookView struct {
	Book      domain.Book
	Rate      float64
	OwnerName string
}

// SaveBook creates a book owned by the caller, or updates one the caller
// already owns.
func (s *Service) SaveBook(ctx context.Context, ownerID string, in SaveBookInput) (domain.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.Book{}, domain.ErrMissingField("title")
	}
	if strings.TrimSpace(in.Author) == "" {
		return domain.Book{}, domain.ErrMissingField("author")
	}

	if in.ID == "" {
		b := domain.Book{
			ID:        uuid.NewString(),
			Title:     in.Title,
			Author:    strings.TrimSpace(in.Author),
			ISBN:      strings.TrimSpace(in.ISBN),
			Synopsis:  in.Synopsis,
			Shareable: in.Shareable,
			OwnerID:   ownerID,
		}
		return s.books.Create(ctx, b)
	}

	b, err := s.books.GetByID(ctx, in.ID)
	if err != nil {
		return domain.Book{}, err
	}
	if b.OwnerID != ownerID {
		return domain.Book{}, domain.ErrNotBookOwner("update")
	}
	b.Title = in.Title
	b.Author = strings.TrimSpace(in.Author)
	b.ISBN = strings.TrimSpace(in.ISBN)
	b.Synopsis = in.Synopsis
	b.Shareable = in.Shareable
	if err := s.books.Update(ctx, b); err != nil {
		return domain.Book{}, err
	}
	return b, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (BookView, error) {
	b, err := s.books.GetByID(ctx, id)
	if err != nil {
		return BookView{}, err
	}
	return s.toView(ctx, b)
}

// ListDisplayable lists books visible to the viewer: shareable, not
// archived, not their own.
func (s *Service) ListDisplayable(ctx context.Context, viewerID string, p Page) (Paged[BookView], error) {
	p = p.Normalize()
	books, total, err := s.books.ListDisplayable(ctx, viewerID, p)
	if err != nil {
		return Paged[BookView]{}, err
	}
	views, err := s.toViews(ctx, books)
	if err != nil {
		return Paged[BookView]{}, err
	}
	return newPaged(views, p, total), nil
}

func (s *Service) ListOwned(ctx context.Context, ownerID string, p Page) (Paged[BookView], error) {
	p = p.Normalize()
	books, total, err := s.books.ListByOwner(ctx, ownerID, p)
	if err != nil {
		return Paged[BookView]{}, err
	}
	views, err := s.toViews(ctx, books)
	if err != nil {
		return Paged[BookView]{}, err
	}
	return newPaged(views, p, total), nil
}

// UpdateShareable toggles the shareable flag. Owner only.
func (s *Service) UpdateShareable(ctx context.Context, bookID, callerID string) (domain.Book, error) {
	return s.toggle(ctx, bookID, callerID, "update shareable status", func(b *domain.Book) {
		b.Shareable = !b.Shareable
	})
}

// UpdateArchived toggles the archived flag. Owner only.
func (s *Service) UpdateArchived(ctx context.Context, bookID, callerID string) (domain.Book, error) {
	return s.toggle(ctx, bookID, callerID, "update archived status", func(b *domain.Book) {
		b.Archived = !b.Archived
	})
}

func (s *Service) toggle(ctx context.Context, bookID, callerID, action string, mutate func(*domain.Book)) (domain.Book, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return domain.Book{}, err
	}
	if b.OwnerID != callerID {
		return domain.Book{}, domain.ErrNotBookOwner(action)
	}
	mutate(&b)
	if err := s.books.Update(ctx, b); err != nil {
		return domain.Book{}, err
	}
	return b, nil
}

// UploadCover stores the image and records its handle on the book.
// Owner only.
func (s *Service) UploadCover(ctx context.Context, bookID, callerID string, data []byte, contentType string) error {
	if len(data) == 0 {
		return domain.ErrMissingField("file")
	}
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return err
	}
	if b.OwnerID != callerID {
		return domain.ErrNotBookOwner("upload cover")
	}
	handle, err := s.covers.Save(ctx, b.ID, data, contentType)
	if err != nil {
		return domain.ErrStorageUnavailable(err)
	}
	return s.books.SetCover(ctx, b.ID, handle)
}

// GetCover returns the cover bytes, or (nil, "") when none was uploaded.
func (s *Service) GetCover(ctx context.Context, bookID string) ([]byte, string, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, "", err
	}
	if b.Cover == "" {
		return nil, "", nil
	}
	data, ct, err := s.covers.Read(ctx, b.Cover)
	if err != nil {
		return nil, "", domain.ErrStorageUnavailable(err)
	}
	return data, ct, nil
}

func (s *Service) toView(ctx context.Context, b domain.Book) (BookView, error) {
	notes, err := s.feedbacks.NotesByBook(ctx, b.ID)
	if err != nil {
		return BookView{}, err
	}
	v := BookView{Book: b, Rate: domain.Rate(notes)}
	if owner, err := s.users.GetByID(ctx, b.OwnerID); err == nil {
		v.OwnerName = owner.FullName()
	}
	return v, nil
}

func (s *Service) toViews(ctx context.Context, books []domain.Book) ([]BookView, error) {
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		v, err := s.toView(ctx, b)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
