package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/course-catalog/internal/jobs"
)

// MessageCounter counts contact messages received since a point in time.
type MessageCounter interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// NewMessageDigestTask builds the scheduled digest task.
func NewMessageDigestTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskTypeMessageDigest, nil), nil
}

// MessageDigestJob mails the administrator a count of the last day's contact messages.
type MessageDigestJob struct {
	Messages  MessageCounter
	Mailer    Mailer
	Recipient string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewMessageDigestJob wires dependencies for the digest handler.
func NewMessageDigestJob(messages MessageCounter, mailer Mailer, recipient string, logger *slog.Logger, metrics *jobmetrics.Metrics) *MessageDigestJob {
	return &MessageDigestJob{
		Messages:  messages,
		Mailer:    mailer,
		Recipient: recipient,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskTypeMessageDigest tasks.
func (j *MessageDigestJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Messages == nil || j.Mailer == nil {
		return errors.New("message digest: handler not configured")
	}
	logger := j.logger()
	if j.Recipient == "" {
		logger.Info("message digest skipped, no recipient configured")
		return nil
	}

	tracker := j.metrics().Track(TaskTypeMessageDigest)
	defer func() {
		err = tracker.End(err)
	}()

	since := j.now().Add(-24 * time.Hour)
	count, err := j.Messages.CountSince(ctx, since)
	if err != nil {
		return fmt.Errorf("message digest: count: %w", err)
	}
	if count == 0 {
		logger.Info("message digest skipped, no new messages")
		return nil
	}
	return j.Mailer.Send(ctx, SendEmailPayload{
		To:      j.Recipient,
		Subject: fmt.Sprintf("%d new contact message(s)", count),
		Body:    fmt.Sprintf("%d contact message(s) arrived since %s.\n", count, since.Format(time.RFC1123)),
	})
}

func (j *MessageDigestJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *MessageDigestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *MessageDigestJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
