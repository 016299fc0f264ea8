package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kristianfreeman/saas-starter/internal/audit"
	jobmetrics "github.com/kristianfreeman/saas-starter/internal/jobs"
)

const defaultRetentionDays = 365

// Purger deletes audit events past the retention horizon.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// AuditPurgeJob runs the scheduled retention sweep. It is the only path that
// ever deletes audit rows.
type AuditPurgeJob struct {
	Purger   Purger
	Recorder *audit.Recorder
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewAuditPurgeJob constructs the retention sweep handler.
func NewAuditPurgeJob(purger Purger, recorder *audit.Recorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditPurgeJob {
	return &AuditPurgeJob{
		Purger:   purger,
		Recorder: recorder,
		Logger:   logger,
		Metrics:  metrics,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes one sweep.
func (j *AuditPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Purger == nil {
		return errors.New("audit purge: handler not configured")
	}
	var payload AuditPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultRetentionDays
	}

	tracker := j.Metrics.Track(TaskTypeAuditPurge)
	horizon := j.now().AddDate(0, 0, -payload.RetentionDays)
	removed, err := j.Purger.Purge(ctx, horizon)
	if err != nil {
		j.logger().Error("retention sweep failed", slog.Any("error", err))
		return tracker.End(err)
	}

	j.logger().Info("retention sweep completed",
		slog.Int64("removed", removed),
		slog.Time("horizon", horizon))
	if j.Recorder != nil && removed > 0 {
		j.Recorder.Record(ctx, audit.SystemEvent(audit.ActionSystemRetentionPurge,
			map[string]any{"removed": removed, "retention_days": payload.RetentionDays}))
	}
	return tracker.End(nil)
}

func (j *AuditPurgeJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *AuditPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeAuditPurge))
	}
	return slog.Default().With(slog.String("job", TaskTypeAuditPurge))
}
