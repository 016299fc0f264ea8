package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/kristianfreeman/saas-starter/internal/email"
	jobmetrics "github.com/kristianfreeman/saas-starter/internal/jobs"
)

// MailSendJob delivers queued transactional emails.
type MailSendJob struct {
	Sender  email.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMailSendJob constructs the mail delivery handler.
func NewMailSendJob(sender email.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *MailSendJob {
	return &MailSendJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle delivers one email.
func (j *MailSendJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sender == nil {
		return errors.New("mail send: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeSendEmail)
	err := j.Sender.Send(ctx, email.Message{
		To:      payload.To,
		Subject: payload.Subject,
		Body:    payload.Body,
	})
	if err != nil {
		j.logger().Error("mail delivery failed",
			slog.String("to", payload.To),
			slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *MailSendJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskTypeSendEmail))
}
