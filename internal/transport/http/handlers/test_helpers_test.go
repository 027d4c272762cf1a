package http_handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shelfshare/shelfshare/internal/application/auth"
	"github.com/shelfshare/shelfshare/internal/application/catalog"
	"github.com/shelfshare/shelfshare/internal/application/notify"
	"github.com/shelfshare/shelfshare/internal/application/token"
	"github.com/shelfshare/shelfshare/internal/domain"
	"github.com/shelfshare/shelfshare/internal/infrastructure/email"
	"github.com/shelfshare/shelfshare/internal/infrastructure/messaging"
	"github.com/shelfshare/shelfshare/internal/infrastructure/storage"
	"github.com/shelfshare/shelfshare/internal/infrastructure/ws"
	http_handlers "github.com/shelfshare/shelfshare/internal/transport/http/handlers"
	"github.com/shelfshare/shelfshare/internal/transport/http/router"
)

// The handler tests run against the real router with in-memory storage, so
// they cover routing, auth middleware, DTO validation and status mapping in
// one pass.

// ---- users ----

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]domain.User
	byMail map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]domain.User{}, byMail: map[string]string{}}
}

func (m *memUsers) put(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = u
	m.byMail[strings.ToLower(u.Email)] = u.ID
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byMail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return m.byID[id], nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byMail[strings.ToLower(email)]
	return ok, nil
}

func (m *memUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	m.put(u)
	return u, nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.PasswordHash = newHash
	m.byID[userID] = u
	return nil
}

func (m *memUsers) Enable(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.Enabled = true
	m.byID[userID] = u
	return nil
}

type memRoles struct{}

func (memRoles) FindByName(_ context.Context, name string) (domain.Role, error) {
	if !domain.IsValidRole(name) {
		return "", domain.ErrRoleMissing(name)
	}
	return domain.Role(name), nil
}

// ---- hashing and tokens ----

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hash:" + pw, nil }

func (plainHasher) Compare(hash, pw string) error {
	if hash != "hash:"+pw {
		return fmt.Errorf("mismatch")
	}
	return nil
}

type stubSigner struct{}

func (stubSigner) SignAccessToken(userID, fullName string, roles []string, ttl time.Duration) (string, error) {
	return "tok|" + userID + "|" + fullName + "|" + strings.Join(roles, ","), nil
}

func (stubSigner) VerifyAccessToken(tok string) (auth.TokenClaims, error) {
	parts := strings.Split(tok, "|")
	if len(parts) != 4 || parts[0] != "tok" {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}
	return auth.TokenClaims{
		UserID:   parts[1],
		FullName: parts[2],
		Roles:    strings.Split(parts[3], ","),
		Exp:      time.Now().Add(time.Hour),
	}, nil
}

// ---- verification codes ----

type memCodeRepo struct {
	mu    sync.Mutex
	codes map[string]domain.VerificationCode
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{codes: map[string]domain.VerificationCode{}}
}

func (m *memCodeRepo) DeleteByUserAndKind(_ context.Context, userID string, kind domain.CodeKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.codes {
		if c.UserID == userID && c.Kind == kind {
			delete(m.codes, id)
		}
	}
	return nil
}

func (m *memCodeRepo) Create(_ context.Context, c domain.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[c.ID] = c
	return nil
}

func (m *memCodeRepo) LatestByCodeAndKind(_ context.Context, code string, kind domain.CodeKind) (domain.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.VerificationCode
	for _, c := range m.codes {
		if c.Code == code && c.Kind == kind {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return domain.VerificationCode{}, domain.ErrCodeNotFound()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out[0], nil
}

func (m *memCodeRepo) MarkValidated(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok {
		return domain.ErrCodeNotFound()
	}
	c.ValidatedAt = &at
	m.codes[id] = c
	return nil
}

func (m *memCodeRepo) DeleteByCode(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.codes {
		if c.Code == code {
			delete(m.codes, id)
		}
	}
	return nil
}

// ---- catalog stores ----

type memBooks struct {
	mu    sync.Mutex
	books map[string]domain.Book
}

func newMemBooks() *memBooks { return &memBooks{books: map[string]domain.Book{}} }

func (m *memBooks) GetByID(_ context.Context, id string) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound(id)
	}
	return b, nil
}

func (m *memBooks) Create(_ context.Context, b domain.Book) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
	return b, nil
}

func (m *memBooks) Update(_ context.Context, b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.ID]; !ok {
		return domain.ErrBookNotFound(b.ID)
	}
	m.books[b.ID] = b
	return nil
}

func (m *memBooks) SetCover(_ context.Context, bookID, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return domain.ErrBookNotFound(bookID)
	}
	b.Cover = handle
	m.books[bookID] = b
	return nil
}

func (m *memBooks) list(filter func(domain.Book) bool, p catalog.Page) ([]domain.Book, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Book
	for _, b := range m.books {
		if filter(b) {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return all[start:end], total
}

func (m *memBooks) ListDisplayable(_ context.Context, viewerID string, p catalog.Page) ([]domain.Book, int, error) {
	books, total := m.list(func(b domain.Book) bool {
		return b.Shareable && !b.Archived && b.OwnerID != viewerID
	}, p)
	return books, total, nil
}

func (m *memBooks) ListByOwner(_ context.Context, ownerID string, p catalog.Page) ([]domain.Book, int, error) {
	books, total := m.list(func(b domain.Book) bool { return b.OwnerID == ownerID }, p)
	return books, total, nil
}

type memLoans struct {
	mu    sync.Mutex
	books *memBooks
	loans map[string]domain.Loan
}

func newMemLoans(books *memBooks) *memLoans {
	return &memLoans{books: books, loans: map[string]domain.Loan{}}
}

func (m *memLoans) Create(_ context.Context, l domain.Loan) (domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.loans {
		if x.BookID == l.BookID && !x.ReturnedApproved {
			return domain.Loan{}, domain.ErrBorrowedByOther()
		}
	}
	m.loans[l.ID] = l
	return l, nil
}

func (m *memLoans) ActiveByBookAndUser(_ context.Context, bookID, userID string) (domain.Loan, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.BookID == bookID && l.UserID == userID && !l.ReturnedApproved {
			return l, true, nil
		}
	}
	return domain.Loan{}, false, nil
}

func (m *memLoans) HasActiveForBook(_ context.Context, bookID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.BookID == bookID && !l.ReturnedApproved {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLoans) PendingReturnByBook(_ context.Context, bookID string) (domain.Loan, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loans {
		if l.BookID == bookID && l.Returned && !l.ReturnedApproved {
			return l, true, nil
		}
	}
	return domain.Loan{}, false, nil
}

func (m *memLoans) MarkReturned(_ context.Context, loanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[loanID]
	if !ok || l.Returned {
		return domain.ErrNotBorrowed()
	}
	l.Returned = true
	m.loans[loanID] = l
	return nil
}

func (m *memLoans) ApproveReturn(_ context.Context, loanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[loanID]
	if !ok || !l.Returned || l.ReturnedApproved {
		return domain.ErrReturnNotPending()
	}
	l.ReturnedApproved = true
	m.loans[loanID] = l
	return nil
}

func (m *memLoans) records(filter func(domain.Loan) bool, p catalog.Page) ([]catalog.LoanRecord, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []catalog.LoanRecord
	for _, l := range m.loans {
		if filter(l) {
			b := m.books.books[l.BookID]
			all = append(all, catalog.LoanRecord{Loan: l, Book: b})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Loan.ID < all[j].Loan.ID })
	total := len(all)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return all[start:end], total
}

func (m *memLoans) ListByBorrower(_ context.Context, userID string, p catalog.Page) ([]catalog.LoanRecord, int, error) {
	recs, total := m.records(func(l domain.Loan) bool { return l.UserID == userID }, p)
	return recs, total, nil
}

func (m *memLoans) ListReturnedByOwner(_ context.Context, ownerID string, p catalog.Page) ([]catalog.LoanRecord, int, error) {
	recs, total := m.records(func(l domain.Loan) bool {
		b := m.books.books[l.BookID]
		return b.OwnerID == ownerID && l.Returned
	}, p)
	return recs, total, nil
}

type memReservations struct {
	mu    sync.Mutex
	books *memBooks
	res   map[string]domain.Reservation
}

func newMemReservations(books *memBooks) *memReservations {
	return &memReservations{books: books, res: map[string]domain.Reservation{}}
}

func (m *memReservations) Create(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.res {
		if x.BookID == r.BookID && x.UserID == r.UserID {
			return domain.Reservation{}, domain.ErrAlreadyReserved()
		}
	}
	m.res[r.ID] = r
	return r, nil
}

func (m *memReservations) FindByBookAndUser(_ context.Context, bookID, userID string) (domain.Reservation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.res {
		if r.BookID == bookID && r.UserID == userID {
			return r, true, nil
		}
	}
	return domain.Reservation{}, false, nil
}

func (m *memReservations) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.res[id]; !ok {
		return domain.ErrReservationNotFound()
	}
	delete(m.res, id)
	return nil
}

func (m *memReservations) ListByUser(_ context.Context, userID string, p catalog.Page) ([]catalog.ReservationRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []catalog.ReservationRecord
	for _, r := range m.res {
		if r.UserID == userID {
			all = append(all, catalog.ReservationRecord{Reservation: r, Book: m.books.books[r.BookID]})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Reservation.ID < all[j].Reservation.ID })
	return all, len(all), nil
}

type memFeedbacks struct {
	mu  sync.Mutex
	fbs map[string]domain.Feedback
}

func newMemFeedbacks() *memFeedbacks { return &memFeedbacks{fbs: map[string]domain.Feedback{}} }

func (m *memFeedbacks) Create(_ context.Context, f domain.Feedback) (domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fbs[f.ID] = f
	return f, nil
}

func (m *memFeedbacks) ListByBook(_ context.Context, bookID string, p catalog.Page) ([]domain.Feedback, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Feedback
	for _, f := range m.fbs {
		if f.BookID == bookID {
			all = append(all, f)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, len(all), nil
}

func (m *memFeedbacks) NotesByBook(_ context.Context, bookID string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var notes []float64
	for _, f := range m.fbs {
		if f.BookID == bookID {
			notes = append(notes, f.Note)
		}
	}
	return notes, nil
}

type memNotifications struct {
	mu sync.Mutex
	ns map[string]domain.Notification
}

func newMemNotifications() *memNotifications {
	return &memNotifications{ns: map[string]domain.Notification{}}
}

func (m *memNotifications) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.CreatedAt = time.Now()
	m.ns[n.ID] = n
	return n, nil
}

func (m *memNotifications) GetByID(_ context.Context, id string) (domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.ns[id]
	if !ok {
		return domain.Notification{}, domain.ErrNotificationNotFound()
	}
	return n, nil
}

func (m *memNotifications) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Notification
	for _, n := range m.ns {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *memNotifications) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.ns[id]
	if !ok {
		return domain.ErrNotificationNotFound()
	}
	n.Read = true
	m.ns[id] = n
	return nil
}

func (m *memNotifications) MarkAllRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.ns {
		if n.UserID == userID {
			n.Read = true
			m.ns[id] = n
		}
	}
	return nil
}

// ---- test app ----

type testApp struct {
	srv    *httptest.Server
	users  *memUsers
	codes  *memCodeRepo
	mailer *email.FakeSender
	books  *memBooks
	notes  *memNotifications
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	users := newMemUsers()
	codeRepo := newMemCodeRepo()
	mailer := email.NewFakeSender(zerolog.Nop())
	codes := token.NewStore(codeRepo, 0)

	authSvc := auth.NewService(users, memRoles{}, plainHasher{}, stubSigner{}, codes, mailer, auth.Config{})

	books := newMemBooks()
	loans := newMemLoans(books)
	notes := newMemNotifications()
	hub := ws.NewHub()
	notifySvc := notify.NewService(notes, hub, messaging.NoopPublisher{})
	catalogSvc := catalog.NewService(
		books, loans, newMemReservations(books), newMemFeedbacks(),
		users, storage.NewMemoryCoverStore(), notifySvc,
	)

	verifier := stubSigner{}
	handler, err := router.New(router.Deps{
		Health:        http_handlers.NewHealthHandler(nil),
		Auth:          http_handlers.NewAuthHandler(authSvc),
		Users:         http_handlers.NewUserHandler(authSvc),
		Books:         http_handlers.NewBookHandler(catalogSvc),
		Notifications: http_handlers.NewNotificationHandler(notifySvc),
		WS:            http_handlers.NewWSHandler(hub, verifier),
		Verifier:      verifier,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testApp{srv: srv, users: users, codes: codeRepo, mailer: mailer, books: books, notes: notes}
}

// seedUser inserts an enabled account and returns a bearer token for it.
func (a *testApp) seedUser(t *testing.T, id, first, last string, roles ...string) string {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{"USER"}
	}
	a.users.put(domain.User{
		ID:           id,
		FirstName:    first,
		LastName:     last,
		Email:        strings.ToLower(id + "@example.com"),
		PasswordHash: "hash:password123",
		Roles:        roles,
		Enabled:      true,
	})
	tok, _ := stubSigner{}.SignAccessToken(id, first+" "+last, roles, time.Hour)
	return tok
}

func (a *testApp) seedBook(owner string, shareable, archived bool) string {
	id := uuid.NewString()
	a.books.books[id] = domain.Book{
		ID:        id,
		Title:     "The Go Programming Language",
		Author:    "Donovan",
		Shareable: shareable,
		Archived:  archived,
		OwnerID:   owner,
	}
	return id
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := a.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeData(t *testing.T, res *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	wrapped := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Data) == 0 {
		t.Fatalf("decode envelope failed; body=%s", string(raw))
	}
	if err := json.Unmarshal(wrapped.Data, out); err != nil {
		t.Fatalf("decode data failed; body=%s err=%v", string(raw), err)
	}
}

func decodeErrCode(t *testing.T, res *http.Response) string {
	t.Helper()
	body := struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}{}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}
