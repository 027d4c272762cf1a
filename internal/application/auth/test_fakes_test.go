package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shelfshare/shelfshare/internal/domain"
)

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID    map[string]domain.User
	byEmail map[string]domain.User

	// injected errors (if set, method returns error)
	getByIDErr    error
	getByEmailErr error
	existsErr     error
	createErr     error
	updatePwdErr  error
	enableErr     error

	// record calls
	enabledIDs []string
	updatedPwd []struct{ id, hash string }
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]domain.User{},
		byEmail: map[string]domain.User{},
	}
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updatePwdErr != nil {
		return f.updatePwdErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return errors.New("not found")
	}
	u.PasswordHash = newHash
	f.byID[userID] = u
	f.byEmail[u.Email] = u
	f.updatedPwd = append(f.updatedPwd, struct{ id, hash string }{userID, newHash})
	return nil
}

func (f *fakeUserRepo) Enable(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.enableErr != nil {
		return f.enableErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return errors.New("not found")
	}
	u.Enabled = true
	f.byID[userID] = u
	f.byEmail[u.Email] = u
	f.enabledIDs = append(f.enabledIDs, userID)
	return nil
}

type fakeRoleRepo struct {
	missing map[string]bool
}

func (f *fakeRoleRepo) FindByName(ctx context.Context, name string) (domain.Role, error) {
	if f.missing[name] {
		return "", errors.New("role not found")
	}
	return domain.Role(name), nil
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

type fakeSigner struct {
	signFn func(userID, fullName string, roles []string, ttl time.Duration) (string, error)
}

func (s *fakeSigner) SignAccessToken(userID, fullName string, roles []string, ttl time.Duration) (string, error) {
	if s.signFn != nil {
		return s.signFn(userID, fullName, roles, ttl)
	}
	return fmt.Sprintf("jwt(%s,%s)", userID, fullName), nil
}

func (s *fakeSigner) VerifyAccessToken(token string) (TokenClaims, error) {
	return TokenClaims{}, nil
}

type fakeCodes struct {
	mu sync.Mutex

	seq    int
	ttl    time.Duration
	byCode map[string]domain.VerificationCode // code -> record (latest wins)

	issueErr    error
	resolveErr  error
	validateErr error
	deleteErr   error

	issued  []string
	deleted []string
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{
		ttl:    15 * time.Minute,
		byCode: map[string]domain.VerificationCode{},
	}
}

func (c *fakeCodes) Issue(ctx context.Context, userID string, kind domain.CodeKind) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.issueErr != nil {
		return "", c.issueErr
	}
	for code, vc := range c.byCode {
		if vc.UserID == userID && vc.Kind == kind {
			delete(c.byCode, code)
		}
	}
	c.seq++
	code := fmt.Sprintf("%06d", c.seq)
	now := time.Now()
	c.byCode[code] = domain.VerificationCode{
		ID:        "vc-" + code,
		Code:      code,
		Kind:      kind,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.issued = append(c.issued, code)
	return code, nil
}

func (c *fakeCodes) Resolve(ctx context.Context, code string, kind domain.CodeKind) (domain.VerificationCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolveErr != nil {
		return domain.VerificationCode{}, c.resolveErr
	}
	vc, ok := c.byCode[code]
	if !ok || vc.Kind != kind {
		return domain.VerificationCode{}, domain.ErrCodeNotFound()
	}
	return vc, nil
}

func (c *fakeCodes) MarkValidated(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validateErr != nil {
		return c.validateErr
	}
	for code, vc := range c.byCode {
		if vc.ID == id {
			now := time.Now()
			vc.ValidatedAt = &now
			c.byCode[code] = vc
			return nil
		}
	}
	return domain.ErrCodeNotFound()
}

func (c *fakeCodes) Delete(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.byCode, code)
	c.deleted = append(c.deleted, code)
	return nil
}

// expire backdates a stored code so expiry guards can be exercised.
func (c *fakeCodes) expire(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vc, ok := c.byCode[code]
	if !ok {
		return
	}
	vc.ExpiresAt = time.Now().Add(-time.Minute)
	c.byCode[code] = vc
}

type sentMail struct {
	kind string // "activation" | "reset" | "set_password"
	to   string
	name string
	code string
}

type fakeMailer struct {
	mu sync.Mutex

	activationErr error
	resetErr      error
	setPwdErr     error

	sent []sentMail
}

func (m *fakeMailer) SendActivation(ctx context.Context, to, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activationErr != nil {
		return m.activationErr
	}
	m.sent = append(m.sent, sentMail{"activation", to, name, code})
	return nil
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, to, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetErr != nil {
		return m.resetErr
	}
	m.sent = append(m.sent, sentMail{"reset", to, name, code})
	return nil
}

func (m *fakeMailer) SendSetPassword(ctx context.Context, to, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setPwdErr != nil {
		return m.setPwdErr
	}
	m.sent = append(m.sent, sentMail{"set_password", to, name, code})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("expected a sent email, got none")
	}
	return m.sent[len(m.sent)-1]
}

/*
Service factory for tests
*/

func newSvcForTest(t *testing.T) (*Service, *fakeUserRepo, *fakeCodes, *fakeMailer) {
	t.Helper()

	users := newFakeUserRepo()
	codes := newFakeCodes()
	mailer := &fakeMailer{}

	svc := NewService(users, &fakeRoleRepo{}, &fakeHasher{}, &fakeSigner{}, codes, mailer, Config{
		AccessTTL: 15 * time.Minute,
	})
	if svc == nil {
		t.Fatalf("svc is nil")
	}
	return svc, users, codes, mailer
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
