package email

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// FakeSender is a development/testing sender. It records every message and
// can simulate failures via env var.
//
// FAKE_FAIL_MODE:
// - "none" (default): always succeed
// - "transient": return Temporary() error (retriable)
// - "permanent": return Permanent() error (non-retriable)
type FakeSender struct {
	lg zerolog.Logger

	mu   sync.Mutex
	Sent []FakeMessage
}

type FakeMessage struct {
	Kind string // "activation" | "password_reset" | "set_password"
	To   string
	Name string
	Code string
}

func NewFakeSender(lg zerolog.Logger) *FakeSender {
	return &FakeSender{
		lg: lg.With().Str("component", "fake_sender").Logger(),
	}
}

func (s *FakeSender) SendActivation(ctx context.Context, to, name, code string) error {
	return s.record(ctx, "activation", to, name, code)
}

func (s *FakeSender) SendPasswordReset(ctx context.Context, to, name, code string) error {
	return s.record(ctx, "password_reset", to, name, code)
}

func (s *FakeSender) SendSetPassword(ctx context.Context, to, name, code string) error {
	return s.record(ctx, "set_password", to, name, code)
}

func (s *FakeSender) record(_ context.Context, kind, to, name, code string) error {
	if err := s.maybeFail(kind); err != nil {
		return err
	}

	s.mu.Lock()
	s.Sent = append(s.Sent, FakeMessage{Kind: kind, To: to, Name: name, Code: code})
	s.mu.Unlock()

	s.lg.Info().
		Str("kind", kind).
		Str("to", to).
		Str("code", code).
		Msg("FAKE send email")
	return nil
}

func (s *FakeSender) maybeFail(kind string) error {
	mode := strings.TrimSpace(strings.ToLower(os.Getenv("FAKE_FAIL_MODE")))
	switch mode {
	case "transient":
		return TemporaryError{msg: fmt.Sprintf("fake transient failure (%s)", kind)}
	case "permanent":
		return PermanentError{msg: fmt.Sprintf("fake permanent failure (%s)", kind)}
	default:
		return nil
	}
}
