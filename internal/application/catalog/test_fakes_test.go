package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shelfshare/shelfshare/internal/domain"
)

/*
Fakes for ports
*/

type fakeBookRepo struct {
	mu sync.Mutex

	byID map[string]domain.Book

	getErr    error
	updateErr error
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{byID: map[string]domain.Book{}}
}

func (f *fakeBookRepo) GetByID(ctx context.Context, id string) (domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.Book{}, f.getErr
	}
	b, ok := f.byID[id]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound(id)
	}
	return b, nil
}

func (f *fakeBookRepo) Create(ctx context.Context, b domain.Book) (domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[b.ID] = b
	return b, nil
}

func (f *fakeBookRepo) Update(ctx context.Context, b domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[b.ID]; !ok {
		return domain.ErrBookNotFound(b.ID)
	}
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBookRepo) SetCover(ctx context.Context, bookID, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[bookID]
	if !ok {
		return domain.ErrBookNotFound(bookID)
	}
	b.Cover = handle
	f.byID[bookID] = b
	return nil
}

func (f *fakeBookRepo) ListDisplayable(ctx context.Context, viewerID string, p Page) ([]domain.Book, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Book
	for _, b := range f.byID {
		if b.Shareable && !b.Archived && b.OwnerID != viewerID {
			out = append(out, b)
		}
	}
	return pageSlice(out, p), len(out), nil
}

func (f *fakeBookRepo) ListByOwner(ctx context.Context, ownerID string, p Page) ([]domain.Book, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Book
	for _, b := range f.byID {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return pageSlice(out, p), len(out), nil
}

func pageSlice[T any](in []T, p Page) []T {
	start := p.Offset()
	if start >= len(in) {
		return nil
	}
	end := start + p.Size
	if end > len(in) {
		end = len(in)
	}
	return in[start:end]
}

type fakeLoanRepo struct {
	mu sync.Mutex

	byID map[string]domain.Loan

	createErr error
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{byID: map[string]domain.Loan{}}
}

func (f *fakeLoanRepo) Create(ctx context.Context, l domain.Loan) (domain.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.Loan{}, f.createErr
	}
	// mirror the storage constraint: one active loan per book
	for _, existing := range f.byID {
		if existing.BookID == l.BookID && !existing.ReturnedApproved {
			return domain.Loan{}, domain.ErrBorrowedByOther()
		}
	}
	f.byID[l.ID] = l
	return l, nil
}

func (f *fakeLoanRepo) ActiveByBookAndUser(ctx context.Context, bookID, userID string) (domain.Loan, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.BookID == bookID && l.UserID == userID && !l.ReturnedApproved {
			return l, true, nil
		}
	}
	return domain.Loan{}, false, nil
}

func (f *fakeLoanRepo) HasActiveForBook(ctx context.Context, bookID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.BookID == bookID && !l.ReturnedApproved {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLoanRepo) PendingReturnByBook(ctx context.Context, bookID string) (domain.Loan, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.BookID == bookID && l.Returned && !l.ReturnedApproved {
			return l, true, nil
		}
	}
	return domain.Loan{}, false, nil
}

func (f *fakeLoanRepo) MarkReturned(ctx context.Context, loanID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[loanID]
	if !ok {
		return errors.New("loan not found")
	}
	l.Returned = true
	f.byID[loanID] = l
	return nil
}

func (f *fakeLoanRepo) ApproveReturn(ctx context.Context, loanID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[loanID]
	if !ok {
		return errors.New("loan not found")
	}
	l.ReturnedApproved = true
	f.byID[loanID] = l
	return nil
}

func (f *fakeLoanRepo) ListByBorrower(ctx context.Context, userID string, p Page) ([]LoanRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LoanRecord
	for _, l := range f.byID {
		if l.UserID == userID {
			out = append(out, LoanRecord{Loan: l})
		}
	}
	return pageSlice(out, p), len(out), nil
}

func (f *fakeLoanRepo) ListReturnedByOwner(ctx context.Context, ownerID string, p Page) ([]LoanRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LoanRecord
	for _, l := range f.byID {
		if l.Returned {
			out = append(out, LoanRecord{Loan: l})
		}
	}
	return pageSlice(out, p), len(out), nil
}

type fakeReservationRepo struct {
	mu   sync.Mutex
	byID map[string]domain.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byID: map[string]domain.Reservation{}}
}

func (f *fakeReservationRepo) Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[r.ID] = r
	return r, nil
}

func (f *fakeReservationRepo) FindByBookAndUser(ctx context.Context, bookID, userID string) (domain.Reservation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.BookID == bookID && r.UserID == userID {
			return r, true, nil
		}
	}
	return domain.Reservation{}, false, nil
}

func (f *fakeReservationRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeReservationRepo) ListByUser(ctx context.Context, userID string, p Page) ([]ReservationRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ReservationRecord
	for _, r := range f.byID {
		if r.UserID == userID {
			out = append(out, ReservationRecord{Reservation: r})
		}
	}
	return pageSlice(out, p), len(out), nil
}

type fakeFeedbackRepo struct {
	mu   sync.Mutex
	byID map[string]domain.Feedback
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{byID: map[string]domain.Feedback{}}
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, fb domain.Feedback) (domain.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[fb.ID] = fb
	return fb, nil
}

func (f *fakeFeedbackRepo) ListByBook(ctx context.Context, bookID string, p Page) ([]domain.Feedback, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Feedback
	for _, fb := range f.byID {
		if fb.BookID == bookID {
			out = append(out, fb)
		}
	}
	return pageSlice(out, p), len(out), nil
}

func (f *fakeFeedbackRepo) NotesByBook(ctx context.Context, bookID string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var notes []float64
	for _, fb := range f.byID {
		if fb.BookID == bookID {
			notes = append(notes, fb.Note)
		}
	}
	return notes, nil
}

type fakeUsers struct {
	byID map[string]domain.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

type fakeCoverStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	cts     map[string]string
	saveErr error
	readErr error
}

func newFakeCoverStore() *fakeCoverStore {
	return &fakeCoverStore{blobs: map[string][]byte{}, cts: map[string]string{}}
}

func (f *fakeCoverStore) Save(ctx context.Context, bookID string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	handle := "covers/" + bookID
	f.blobs[handle] = data
	f.cts[handle] = contentType
	return handle, nil
}

func (f *fakeCoverStore) Read(ctx context.Context, handle string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, "", f.readErr
	}
	data, ok := f.blobs[handle]
	if !ok {
		return nil, "", errors.New("no such blob")
	}
	return data, f.cts[handle], nil
}

type sentNotification struct {
	userID    string
	status    domain.NotificationStatus
	message   string
	bookTitle string
}

type fakeNotifier struct {
	mu      sync.Mutex
	sendErr error
	sent    []sentNotification
}

func (f *fakeNotifier) Send(ctx context.Context, userID string, status domain.NotificationStatus, message, bookTitle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentNotification{userID, status, message, bookTitle})
	return nil
}

func (f *fakeNotifier) last(t *testing.T) sentNotification {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("expected a notification, got none")
	}
	return f.sent[len(f.sent)-1]
}

/*
Service factory for tests
*/

type testDeps struct {
	books        *fakeBookRepo
	loans        *fakeLoanRepo
	reservations *fakeReservationRepo
	feedbacks    *fakeFeedbackRepo
	users        *fakeUsers
	covers       *fakeCoverStore
	notifier     *fakeNotifier
}

func newSvcForTest(t *testing.T) (*Service, *testDeps) {
	t.Helper()

	d := &testDeps{
		books:        newFakeBookRepo(),
		loans:        newFakeLoanRepo(),
		reservations: newFakeReservationRepo(),
		feedbacks:    newFakeFeedbackRepo(),
		users: &fakeUsers{byID: map[string]domain.User{
			"owner":    {ID: "owner", FirstName: "Olive", LastName: "Owner"},
			"borrower": {ID: "borrower", FirstName: "Bob", LastName: "Borrower"},
			"other":    {ID: "other", FirstName: "Oscar", LastName: "Other"},
		}},
		covers:   newFakeCoverStore(),
		notifier: &fakeNotifier{},
	}
	svc := NewService(d.books, d.loans, d.reservations, d.feedbacks, d.users, d.covers, d.notifier)
	return svc, d
}

// seedBook inserts a shareable, unarchived book owned by "owner".
func seedBook(t *testing.T, d *testDeps, id string) domain.Book {
	t.Helper()
	b := domain.Book{
		ID:        id,
		Title:     "The Go Programming Language",
		Author:    "Donovan & Kernighan",
		Shareable: true,
		OwnerID:   "owner",
	}
	d.books.byID[id] = b
	return b
}

/*
Small assertions
*/

func domainCode(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}
