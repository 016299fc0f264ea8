package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/kristianfreeman/saas-starter/internal/billing"
	jobmetrics "github.com/kristianfreeman/saas-starter/internal/jobs"
)

// BillingWebhookJob applies verified provider webhooks off the request path.
type BillingWebhookJob struct {
	Processor *billing.Processor
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewBillingWebhookJob constructs the webhook processing handler.
func NewBillingWebhookJob(processor *billing.Processor, logger *slog.Logger, metrics *jobmetrics.Metrics) *BillingWebhookJob {
	return &BillingWebhookJob{Processor: processor, Logger: logger, Metrics: metrics}
}

// Handle processes one webhook payload.
func (j *BillingWebhookJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Processor == nil {
		return errors.New("billing webhook: handler not configured")
	}
	tracker := j.Metrics.Track(billing.TaskTypeWebhook)
	err := j.Processor.Process(ctx, t.Payload())
	if err != nil {
		j.logger().Error("webhook processing failed", slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *BillingWebhookJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", billing.TaskTypeWebhook))
	}
	return slog.Default().With(slog.String("job", billing.TaskTypeWebhook))
}
