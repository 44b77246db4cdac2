package email

import (
	"context"
	"errors"

	"user-mgmt/internal/domain"
)

// Sender define la interfaz para envio de correos transaccionales.
type Sender interface {
	SendVerification(ctx context.Context, user domain.User, verificationLink string) error
	SendWelcome(ctx context.Context, user domain.User, loginLink string) error
	SendPasswordReset(ctx context.Context, user domain.User, resetLink string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendVerification(_ context.Context, _ domain.User, _ string) error {
	return s.err()
}

func (s *disabledSender) SendWelcome(_ context.Context, _ domain.User, _ string) error {
	return s.err()
}

func (s *disabledSender) SendPasswordReset(_ context.Context, _ domain.User, _ string) error {
	return s.err()
}
