package messages

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Notifier is told about new messages. Failures do not reject the message.
type Notifier interface {
	EnqueueMessageNotification(ctx context.Context, name, email, reference string) error
}

// Service stores contact messages.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewService constructs the service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Submit stores a message under a fresh reference and notifies the administrator.
func (s *Service) Submit(ctx context.Context, name, email, body string) (*Message, error) {
	created, err := s.repo.Create(ctx, Message{
		Reference: uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Message:   strings.TrimSpace(body),
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.EnqueueMessageNotification(ctx, created.Name, created.Email, created.Reference.String()); err != nil {
			s.logger.Warn("enqueue message notification", slog.String("reference", created.Reference.String()), slog.Any("error", err))
		}
	}
	return created, nil
}

// List returns every message, newest first.
func (s *Service) List(ctx context.Context) ([]Message, error) {
	return s.repo.List(ctx)
}
