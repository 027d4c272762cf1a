package token

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfshare/shelfshare/internal/domain"
)

/*
Repo
----
Persistence port for verification codes.
Only describes WHAT the store needs, not HOW it's stored.
*/
type Repo interface {
	DeleteByUserAndKind(ctx context.Context, userID string, kind domain.CodeKind) error
	Create(ctx context.Context, c domain.VerificationCode) error
	// LatestByCodeAndKind returns the most recently created match.
	LatestByCodeAndKind(ctx context.Context, code string, kind domain.CodeKind) (domain.VerificationCode, error)
	MarkValidated(ctx context.Context, id string, at time.Time) error
	DeleteByCode(ctx context.Context, code string) error
}

const codeLength = 6

// Store issues and resolves short-lived numeric verification codes.
// Exactly one live code per (user,kind): issuing deletes predecessors first.
type Store struct {
	repo Repo
	ttl  time.Duration
	now  func() time.Time
}

func NewStore(repo Repo, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Issue invalidates prior codes for (user,kind), persists a fresh one and
// returns it. No cross-user uniqueness check: resolution is scoped by
// (code,kind), so collisions only matter within one pair, which the delete
// handles.
func (s *Store) Issue(ctx context.Context, userID string, kind domain.CodeKind) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", domain.ErrMissingField("user_id")
	}

	if err := s.repo.DeleteByUserAndKind(ctx, userID, kind); err != nil {
		return "", err
	}

	code, err := generateCode(codeLength)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	now := s.now()
	vc := domain.VerificationCode{
		ID:        uuid.NewString(),
		Code:      code,
		Kind:      kind,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, vc); err != nil {
		return "", err
	}
	return code, nil
}

// Resolve finds the live code scoped to its kind. Expiry and validation are
// separate guards evaluated by the caller, so an expired code still resolves.
func (s *Store) Resolve(ctx context.Context, code string, kind domain.CodeKind) (domain.VerificationCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.VerificationCode{}, domain.ErrMissingField("code")
	}
	return s.repo.LatestByCodeAndKind(ctx, code, kind)
}

func (s *Store) MarkValidated(ctx context.Context, id string) error {
	return s.repo.MarkValidated(ctx, id, s.now())
}

// Delete is best-effort cleanup, used to compensate for a failed downstream
// email send.
func (s *Store) Delete(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return s.repo.DeleteByCode(ctx, code)
}

func generateCode(length int) (string, error) {
	const digits = "0123456789"
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		b.WriteByte(digits[n.Int64()])
	}
	return b.String(), nil
}
